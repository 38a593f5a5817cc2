package observers

import (
	"encoding/json"

	luxlog "github.com/luxfi/log"
	zmq "github.com/pebbe/zmq4"

	"github.com/shahsb/In-Memory-Trading-System/pkg/lx"
)

// ZMQObserver publishes trades and order status changes over a ZeroMQ PUB
// socket, one two-frame message per event (a "trade" or "order" topic frame
// followed by a JSON frame), mirroring the bind/high-water-mark
// setup the teacher's zmq-exchange server uses for its PULL socket.
type ZMQObserver struct {
	ctx    *zmq.Context
	socket *zmq.Socket
	logger luxlog.Logger
}

// NewZMQObserver binds a PUB socket at bindAddr (e.g. "tcp://*:5556").
func NewZMQObserver(bindAddr string) (*ZMQObserver, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, err
	}
	socket, err := ctx.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	if err := socket.SetSndhwm(100000); err != nil {
		return nil, err
	}
	if err := socket.Bind(bindAddr); err != nil {
		return nil, err
	}
	return &ZMQObserver{ctx: ctx, socket: socket, logger: luxlog.Root().New("module", "zmq-observer")}, nil
}

// Close tears down the socket and context.
func (z *ZMQObserver) Close() {
	z.socket.Close()
	z.ctx.Term()
}

// OnTradeExecuted implements lx.Observer.
func (z *ZMQObserver) OnTradeExecuted(t lx.Trade) {
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
		z.logger.Error("failed to marshal trade", "error", err)
		return
	}
	if _, err := z.socket.SendMessage("trade", data); err != nil {
		z.logger.Error("failed to send trade frame", "error", err)
	}
}

// OnOrderStatusChanged implements lx.Observer.
func (z *ZMQObserver) OnOrderStatusChanged(o lx.Order) {
	msg := statusMessage{
		OrderID:   string(o.ID),
		UserID:    string(o.UserID),
		Symbol:    o.Symbol,
		Status:    o.Status.String(),
		Timestamp: o.Timestamp,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		z.logger.Error("failed to marshal order status", "error", err)
		return
	}
	if _, err := z.socket.SendMessage("order", data); err != nil {
		z.logger.Error("failed to send order frame", "error", err)
	}
}
