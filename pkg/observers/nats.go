// Package observers holds lx.Observer implementations that fan the
// engine's trade and order-status events out to external transports,
// grounded in the teacher's backend/cmd/nats-dex and backend/cmd/zmq-exchange
// wiring.
package observers

import (
	"encoding/json"
	"time"

	luxlog "github.com/luxfi/log"
	"github.com/nats-io/nats.go"

	"github.com/shahsb/In-Memory-Trading-System/pkg/lx"
)

// tradeMessage and statusMessage are the wire shapes published on NATS and
// ZeroMQ;
// they exist separately from lx.Trade/lx.Order so the wire format is free
// to diverge from the in-process struct layout.
type tradeMessage struct {
	TradeID   string    `json:"trade_id"`
	Symbol    string    `json:"symbol"`
	BuyOrder  string    `json:"buy_order_id"`
	SellOrder string    `json:"sell_order_id"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type statusMessage struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSObserver publishes every trade to "dex.trades.<symbol>" and every
// order status change to "dex.orders.<symbol>".
type NATSObserver struct {
	nc     *nats.Conn
	logger luxlog.Logger
}

// NewNATSObserver connects to url and returns a ready observer. Callers
// own the underlying connection's lifetime; call Close when done.
func NewNATSObserver(url string) (*NATSObserver, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSObserver{nc: nc, logger: luxlog.Root().New("module", "nats-observer")}, nil
}

// Close closes the underlying NATS connection without draining it.
func (n *NATSObserver) Close() {
	n.nc.Close()
}

// OnTradeExecuted implements lx.Observer.
func (n *NATSObserver) OnTradeExecuted(t lx.Trade) {
	msg := tradeMessage{
		TradeID:   string(t.ID),
		Symbol:    t.Symbol,
		BuyOrder:  string(t.BuyOrderID),
		SellOrder: string(t.SellOrderID),
		Quantity:  t.Quantity,
		Price:     t.Price,
		Timestamp: t.Timestamp,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("failed to marshal trade", "error", err)
		return
	}
	if err := n.nc.Publish("dex.trades."+t.Symbol, data); err != nil {
		n.logger.Error("failed to publish trade", "error", err)
	}
}

// OnOrderStatusChanged implements lx.Observer.
func (n *NATSObserver) OnOrderStatusChanged(o lx.Order) {
	msg := statusMessage{
		OrderID:   string(o.ID),
		UserID:    string(o.UserID),
		Symbol:    o.Symbol,
		Status:    o.Status.String(),
		Timestamp: o.Timestamp,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("failed to marshal order status", "error", err)
		return
	}
	if err := n.nc.Publish("dex.orders."+o.Symbol, data); err != nil {
		n.logger.Error("failed to publish order status", "error", err)
	}
}
