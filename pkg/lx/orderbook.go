package lx

import (
	"container/heap"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	applog "github.com/shahsb/In-Memory-Trading-System/pkg/log"
)

// heapItem wraps a resident order for container/heap bookkeeping. idx is
// maintained by priceTimeHeap.Swap so heap.Remove can locate an order by
// identity in O(log n) instead of a linear scan.
type heapItem struct {
	order *Order
	key   decimal.Decimal
	idx   int
}

// priceTimeHeap implements price-time priority over one side of a book.
// Prices are compared as decimal, rounded to 8 places, rather than with
// the float epsilon the spec names (§4.3's "free to substitute fixed-point
// decimal, in which case the epsilon is 0").
type priceTimeHeap struct {
	side  Side
	items []*heapItem
}

func lessItems(side Side, a, b *heapItem) bool {
	cmp := a.key.Cmp(b.key)
	if cmp != 0 {
		if side == Buy {
			return cmp > 0 // highest price first
		}
		return cmp < 0 // lowest price first
	}
	return a.order.Timestamp.Before(b.order.Timestamp)
}

func (h *priceTimeHeap) Len() int { return len(h.items) }
func (h *priceTimeHeap) Less(i, j int) bool {
	return lessItems(h.side, h.items[i], h.items[j])
}
func (h *priceTimeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].idx = i
	h.items[j].idx = j
}
func (h *priceTimeHeap) Push(x interface{}) {
	item := x.(*heapItem)
	item.idx = len(h.items)
	h.items = append(h.items, item)
}
func (h *priceTimeHeap) Pop() interface{} {
	n := len(h.items)
	item := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	return item
}

func priceKey(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Round(8)
}

// bookSide is one ordered side of an OrderBook: a priority heap plus an
// index from OrderID to heap position for O(log n) cancel/modify.
type bookSide struct {
	side  Side
	heap  *priceTimeHeap
	index map[OrderID]*heapItem
}

func newBookSide(side Side) *bookSide {
	return &bookSide{
		side:  side,
		heap:  &priceTimeHeap{side: side},
		index: make(map[OrderID]*heapItem),
	}
}

func (bs *bookSide) add(o *Order) {
	item := &heapItem{order: o, key: priceKey(o.Price)}
	heap.Push(bs.heap, item)
	bs.index[o.ID] = item
}

func (bs *bookSide) remove(id OrderID) bool {
	item, ok := bs.index[id]
	if !ok {
		return false
	}
	heap.Remove(bs.heap, item.idx)
	delete(bs.index, id)
	return true
}

func (bs *bookSide) peek() *Order {
	if bs.heap.Len() == 0 {
		return nil
	}
	return bs.heap.items[0].order
}

func (bs *bookSide) len() int { return bs.heap.Len() }

// snapshot returns resident orders in priority order without disturbing
// the heap, for get_buy_orders/get_sell_orders and the FOK liquidity
// pre-check.
func (bs *bookSide) snapshot() []*Order {
	items := make([]*heapItem, len(bs.heap.items))
	copy(items, bs.heap.items)
	sort.Slice(items, func(i, j int) bool { return lessItems(bs.side, items[i], items[j]) })
	orders := make([]*Order, len(items))
	for i, it := range items {
		orders[i] = it.order
	}
	return orders
}

// OrderBook holds the two sides of one symbol's resting orders plus the ID
// index, and owns the matching algorithm. Every public method serializes
// against mu, following the engine-lock-before-book-lock discipline of
// spec §5: callers must never hold the Engine's lock while calling in.
type OrderBook struct {
	Symbol string

	mu     sync.RWMutex
	bids   *bookSide
	asks   *bookSide
	orders map[OrderID]*Order // retains filled orders' entries, see §9 open question 3

	clk    clock
	logger applog.Logger
}

// NewOrderBook creates an empty book for symbol, lazily instantiated by the
// Engine on first order (spec §3 "Engine state" lifecycle).
func NewOrderBook(symbol string) *OrderBook {
	ob := &OrderBook{
		Symbol: symbol,
		bids:   newBookSide(Buy),
		asks:   newBookSide(Sell),
		orders: make(map[OrderID]*Order),
		logger: applog.New("orderbook"),
	}
	ob.logger.Info("order book created", "symbol", symbol)
	return ob
}

// Add validates order and inserts it into the appropriate side and ID
// index, setting status ACCEPTED (spec §4.3). It does not itself run the
// matching loop: a plain GTC limit order simply joins its side, and the
// caller (the Engine) is expected to follow with Match(). The exception is
// Market, IOC, and FOK orders, which by construction must never rest —
// §9 open question 4 calls the reference's alternative (a market order
// sitting at its price-0 sentinel) a bug, and recommends executing them
// immediately against the opposite side instead. Add implements that
// recommendation here, before the order would otherwise be inserted, and
// returns whatever trades that immediate execution produced.
func (ob *OrderBook) Add(order *Order) ([]Trade, error) {
	if order == nil {
		return nil, ErrOrderInvalid
	}
	if order.Symbol != ob.Symbol {
		return nil, ErrSymbolMismatch
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.orders[order.ID]; exists {
		return nil, ErrOrderExists
	}
	if !order.IsValid() {
		order.SetStatus(Rejected)
		return nil, ErrOrderInvalid
	}

	order.Timestamp = ob.clk.now()
	order.SetStatus(Accepted)

	immediate := order.Kind == OrderMarket || order.TimeInForce == IOC || order.TimeInForce == FOK

	if order.TimeInForce == FOK && !ob.canFullyFillLocked(order) {
		order.SetStatus(Rejected)
		return nil, ErrFillOrKill
	}

	var trades []Trade
	if immediate {
		trades = ob.matchTakerLocked(order)
		if order.Remaining() > 0 && order.FilledQuantity == 0 {
			order.SetStatus(Cancelled)
		}
	} else {
		ob.sideFor(order.Side).add(order)
	}

	ob.orders[order.ID] = order
	ob.logger.Debug("order accepted", "order_id", string(order.ID), "status", order.Status.String())
	return trades, nil
}

func (ob *OrderBook) sideFor(side Side) *bookSide {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) oppositeSide(side Side) *bookSide {
	if side == Buy {
		return ob.asks
	}
	return ob.bids
}

// canFullyFillLocked reports whether the opposite side currently holds
// enough marketable liquidity to fully satisfy taker. Callers must hold
// mu. It never mutates book state.
func (ob *OrderBook) canFullyFillLocked(taker *Order) bool {
	limited := taker.Kind == OrderLimit
	var avail float64
	for _, maker := range ob.oppositeSide(taker.Side).snapshot() {
		if limited {
			if taker.Side == Buy && taker.Price < maker.Price {
				break
			}
			if taker.Side == Sell && taker.Price > maker.Price {
				break
			}
		}
		avail += maker.Remaining()
		if avail >= taker.Quantity {
			return true
		}
	}
	return avail >= taker.Quantity
}

// matchTakerLocked matches taker immediately against the opposite side
// until taker is filled, the opposite side is exhausted, or (for a limit
// taker) the price no longer crosses. It is used only for orders that must
// never rest (Market, IOC, FOK); a plain GTC limit order is matched later
// by Match(). Trade price follows the sell-side order's price (spec §9
// open question 2) for a limit taker: the resting maker's price when the
// taker buys, the taker's own limit price when the taker sells.
// A market taker has no real price of its own (it is pinned at the zero
// sentinel), so per §9 open question 4 it always executes at the resting
// counterparty's price instead. Callers must hold mu.
func (ob *OrderBook) matchTakerLocked(taker *Order) []Trade {
	var trades []Trade
	opp := ob.oppositeSide(taker.Side)
	limited := taker.Kind == OrderLimit

	for taker.Remaining() > 0 {
		maker := opp.peek()
		if maker == nil {
			break
		}
		if limited {
			if taker.Side == Buy && taker.Price < maker.Price {
				break
			}
			if taker.Side == Sell && taker.Price > maker.Price {
				break
			}
		}

		qty := math.Min(taker.Remaining(), maker.Remaining())

		var buyOrder, sellOrder *Order
		if taker.Side == Buy {
			buyOrder, sellOrder = taker, maker
		} else {
			buyOrder, sellOrder = maker, taker
		}
		price := sellOrder.Price
		if taker.Kind == OrderMarket {
			price = maker.Price
		}

		trade := newTrade(ob.Symbol, buyOrder.ID, sellOrder.ID, qty, price, ob.clk.now())
		taker.Fill(qty)
		maker.Fill(qty)
		ob.logger.Debug("trade executed", "trade_id", string(trade.ID), "qty", qty, "price", price)
		trades = append(trades, trade)

		if maker.Remaining() <= 0 {
			opp.remove(maker.ID)
		}
	}
	return trades
}

// Match runs the price-time-priority matching loop over the two resting
// sides: repeatedly cross the best bid against the best ask until one
// side is empty or the best prices no longer cross. The Engine calls this
// after every Add and after every Modify, since either can create a new
// cross between two orders that are both already resident in the book.
func (ob *OrderBook) Match() []Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.matchBookLocked()
}

func (ob *OrderBook) matchBookLocked() []Trade {
	var trades []Trade
	for {
		b := ob.bids.peek()
		s := ob.asks.peek()
		if b == nil || s == nil {
			break
		}
		if b.Price < s.Price {
			break
		}

		qty := math.Min(b.Remaining(), s.Remaining())
		price := s.Price

		trade := newTrade(ob.Symbol, b.ID, s.ID, qty, price, ob.clk.now())
		b.Fill(qty)
		s.Fill(qty)
		trades = append(trades, trade)

		if b.Remaining() <= 0 {
			ob.bids.remove(b.ID)
		}
		if s.Remaining() <= 0 {
			ob.asks.remove(s.ID)
		}
	}
	return trades
}

// Cancel removes a resident, cancellable order and marks it CANCELLED.
func (ob *OrderBook) Cancel(id OrderID) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !order.CanCancel() {
		return ErrNotCancellable
	}
	if !ob.sideFor(order.Side).remove(id) {
		return ErrNotCancellable
	}
	order.SetStatus(Cancelled)
	return nil
}

// Modify atomically replaces a resident, modifiable order with a cloned
// variant carrying newQuantity/newPrice and a fresh time-priority key. On
// any precondition failure it returns an error without mutating the book
// (spec §4.3).
func (ob *OrderBook) Modify(id OrderID, newQuantity, newPrice float64) (*Order, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !order.CanModify() {
		return nil, ErrNotModifiable
	}

	replacement := order.Clone()
	if !replacement.SetQuantity(newQuantity) {
		return nil, ErrInvalidQuantity
	}
	if !replacement.SetPrice(newPrice) {
		return nil, ErrInvalidPrice
	}

	if !ob.sideFor(order.Side).remove(id) {
		return nil, ErrNotModifiable
	}

	replacement.SetStatus(Accepted)
	replacement.Timestamp = ob.clk.now()
	ob.sideFor(replacement.Side).add(replacement)
	ob.orders[id] = replacement

	return replacement, nil
}

// GetOrder looks up an order resident in this book's ID index, which may
// still report a fully filled order (§9 open question 3); callers that
// need authoritative status should go through the Engine's all_orders.
func (ob *OrderBook) GetOrder(id OrderID) (*Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	o, ok := ob.orders[id]
	return o, ok
}

// GetBuyOrders returns resident buy orders in priority order.
func (ob *OrderBook) GetBuyOrders() []*Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.snapshot()
}

// GetSellOrders returns resident sell orders in priority order.
func (ob *OrderBook) GetSellOrders() []*Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.asks.snapshot()
}

// BestBid returns the highest resting buy price, or 0 if the side is empty.
func (ob *OrderBook) BestBid() float64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if top := ob.bids.peek(); top != nil {
		return top.Price
	}
	return 0
}

// BestAsk returns the lowest resting sell price, or 0 if the side is empty.
func (ob *OrderBook) BestAsk() float64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if top := ob.asks.peek(); top != nil {
		return top.Price
	}
	return 0
}

// Spread is BestAsk - BestBid. It is only meaningful when both sides are
// populated; with an empty side it returns the arithmetic result of
// subtracting from/against a zero sentinel, per spec §4.3.
func (ob *OrderBook) Spread() float64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	var bid, ask float64
	if top := ob.bids.peek(); top != nil {
		bid = top.Price
	}
	if top := ob.asks.peek(); top != nil {
		ask = top.Price
	}
	return ask - bid
}

// Depth reports the number of resident orders on each side, a cheap
// market-data point query distinct from the full snapshot methods.
func (ob *OrderBook) Depth() (bids, asks int) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.len(), ob.asks.len()
}
