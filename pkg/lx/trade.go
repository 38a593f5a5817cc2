package lx

import "time"

// Trade is an immutable execution record. Its Price is the selling order's
// price (spec §9 open question 2): whichever order is on the sell side —
// maker or taker — its price is what prints, not necessarily the resting
// order's price. The one exception is a market taker, which has no price of
// its own and prints at the resting maker's price.
type Trade struct {
	ID          TradeID
	Symbol      string
	BuyOrderID  OrderID
	SellOrderID OrderID
	Quantity    float64
	Price       float64
	Timestamp   time.Time
}

func newTrade(symbol string, buyID, sellID OrderID, qty, price float64, ts time.Time) Trade {
	return Trade{
		ID:          newTradeID(),
		Symbol:      symbol,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Quantity:    qty,
		Price:       price,
		Timestamp:   ts,
	}
}
