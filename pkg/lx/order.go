package lx

import "time"

// Order is a resting or immediate order on one side of one symbol's book.
// Identity fields (ID, UserID, Symbol, Side) are fixed at construction;
// Status, FilledQuantity, Quantity and Price (for limit orders) are mutated
// only by the owning OrderBook under its write lock.
type Order struct {
	ID     OrderID
	UserID UserID
	Symbol string
	Side   Side
	Kind   OrderKind

	Price          float64
	Quantity       float64
	FilledQuantity float64

	Timestamp   time.Time
	TimeInForce TimeInForce
	Status      OrderStatus
}

// newOrder constructs a PENDING order. A zero price selects a market order;
// any positive price selects a limit order, matching the reference's
// "price > 0 => Limit, else Market" construction rule (spec §4.4).
func newOrder(userID UserID, side Side, symbol string, quantity, price float64, tif TimeInForce) *Order {
	kind := OrderLimit
	if price <= 0 {
		kind = OrderMarket
		price = 0
	}
	return &Order{
		ID:          newOrderID(),
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Kind:        kind,
		Price:       price,
		Quantity:    quantity,
		Status:      Pending,
		TimeInForce: tif,
	}
}

// Remaining is the quantity not yet filled.
func (o *Order) Remaining() float64 {
	return o.Quantity - o.FilledQuantity
}

// CanModify reports whether the order may still have its quantity or price
// changed.
func (o *Order) CanModify() bool {
	return o.Status == Pending || o.Status == Accepted
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	return o.Status == Pending || o.Status == Accepted || o.Status == PartiallyFilled
}

// SetQuantity replaces the order's quantity if it is in range and the order
// is modifiable. It never mutates FilledQuantity or Status.
func (o *Order) SetQuantity(q float64) bool {
	if q <= 0 || q > MaxOrderQuantity {
		return false
	}
	if !o.CanModify() {
		return false
	}
	o.Quantity = q
	return true
}

// SetPrice replaces a limit order's price if in range and the order is
// modifiable. Market orders always reject the call: their price field
// never changes after construction (spec §4.2, invariant in §3).
func (o *Order) SetPrice(p float64) bool {
	if o.Kind == OrderMarket {
		return false
	}
	if p < MinOrderPrice || p > MaxOrderPrice {
		return false
	}
	if !o.CanModify() {
		return false
	}
	o.Price = p
	return true
}

// SetStatus transitions the order's status. Callers are responsible for
// only calling it with legal transitions; this method enforces nothing
// beyond assignment, matching the reference's bare setter.
func (o *Order) SetStatus(s OrderStatus) {
	o.Status = s
}

// Fill adds qty to FilledQuantity and updates Status, unless qty exceeds
// Remaining(), in which case it is a no-op.
func (o *Order) Fill(qty float64) {
	if qty <= 0 || qty > o.Remaining() {
		return
	}
	o.FilledQuantity += qty
	if o.FilledQuantity >= o.Quantity {
		o.Status = Filled
	} else if o.FilledQuantity > 0 {
		o.Status = PartiallyFilled
	}
}

// IsValid checks identity and bounds. Market orders are exempt from the
// lower price bound since their price is pinned at the zero sentinel.
func (o *Order) IsValid() bool {
	if o.ID == "" || o.UserID == "" || o.Symbol == "" {
		return false
	}
	if o.Quantity <= 0 || o.Quantity > MaxOrderQuantity {
		return false
	}
	if o.Kind == OrderMarket {
		return o.Price >= 0
	}
	return o.Price >= MinOrderPrice && o.Price <= MaxOrderPrice
}

// Clone returns a structurally identical copy sharing the same identity.
// modify() uses it to produce the re-inserted replacement order that
// carries a fresh time-priority key (spec §4.3, §9 open question 1).
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
