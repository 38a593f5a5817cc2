package lx

import (
	"sync"
	"time"

	"github.com/luxfi/metric"

	applog "github.com/shahsb/In-Memory-Trading-System/pkg/log"
)

// Engine owns every user, every symbol's book, and the engine-wide order
// index. It is meant to be constructed once at process startup and shared
// by reference; tests construct a fresh Engine per case rather than
// reaching for a process-global singleton.
type Engine struct {
	mu        sync.RWMutex
	users     map[UserID]User
	books     map[string]*OrderBook
	allOrders map[OrderID]*Order
	observers []Observer

	logger applog.Logger

	// stats is in-process instrumentation independent of any external
	// observer: place/cancel/modify counts and place-to-commit latency,
	// queryable without a Prometheus scrape.
	stats *metric.Registry
}

// NewEngine returns an Engine with no users, books, or observers.
func NewEngine() *Engine {
	return &Engine{
		users:     make(map[UserID]User),
		books:     make(map[string]*OrderBook),
		allOrders: make(map[OrderID]*Order),
		logger:    applog.New("engine"),
		stats:     metric.NewRegistry(),
	}
}

// Stats exposes the engine's internal instrumentation registry: counters
// "orders.placed", "orders.cancelled", "orders.modified", "trades.matched",
// and a histogram "place.latency.microseconds".
func (e *Engine) Stats() *metric.Registry {
	return e.stats
}

// RegisterUser inserts u if it is valid and its ID is unused.
func (e *Engine) RegisterUser(u User) error {
	if !u.IsValid() {
		return ErrUserInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.users[u.ID]; exists {
		return ErrUserExists
	}
	e.users[u.ID] = u
	return nil
}

// GetUser is a point lookup.
func (e *Engine) GetUser(id UserID) (User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[id]
	return u, ok
}

// bookFor returns the book for symbol, lazily creating it on first use. It
// never holds the engine write lock across a book operation: the engine
// lock is acquired only long enough to read or install the map entry,
// per the engine-lock-before-book-lock discipline.
func (e *Engine) bookFor(symbol string) *OrderBook {
	e.mu.RLock()
	b, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = NewOrderBook(symbol)
	e.books[symbol] = b
	return b
}

// Place constructs and submits a new order. tif selects GTC resting
// behavior or IOC/FOK immediate-execution semantics; spec.md's literal
// place(user_id, side, symbol, quantity, price) signature is the GTC case
// (see PlaceGTC).
//
// On success the order (now carrying its book-assigned identity) is
// returned and order_status_changed/trade_executed observers have already
// fired, in that order, for everything this call produced. On any
// precondition failure the call returns an error and leaves all engine
// state exactly as it was before the call (spec §7).
func (e *Engine) Place(userID UserID, side Side, symbol string, quantity, price float64, tif TimeInForce) (*Order, error) {
	start := time.Now()
	if price < 0 {
		return nil, ErrNegativePrice
	}
	if symbol == "" {
		return nil, ErrOrderInvalid
	}
	if _, ok := e.GetUser(userID); !ok {
		return nil, ErrUserNotFound
	}

	order := newOrder(userID, side, symbol, quantity, price, tif)
	if !order.IsValid() {
		return nil, ErrOrderInvalid
	}

	e.mu.Lock()
	e.allOrders[order.ID] = order
	e.mu.Unlock()

	book := e.bookFor(symbol)
	trades, err := book.Add(order)
	if err != nil {
		e.mu.Lock()
		delete(e.allOrders, order.ID)
		e.mu.Unlock()
		return nil, err
	}

	e.notifyStatus(*order)

	trades = append(trades, book.Match()...)
	e.notifyTrades(trades)

	e.stats.Counter("orders.placed").Inc(1)
	e.stats.Counter("trades.matched").Inc(int64(len(trades)))
	e.stats.Histogram("place.latency.microseconds").Observe(float64(time.Since(start).Microseconds()))

	return order, nil
}

// PlaceGTC is spec.md's literal place(user_id, side, symbol, quantity,
// price): always GTC.
func (e *Engine) PlaceGTC(userID UserID, side Side, symbol string, quantity, price float64) (*Order, error) {
	return e.Place(userID, side, symbol, quantity, price, GTC)
}

// Cancel cancels order_id on behalf of user_id, requiring ownership.
func (e *Engine) Cancel(userID UserID, orderID OrderID) error {
	if _, ok := e.GetUser(userID); !ok {
		return ErrUserNotFound
	}

	e.mu.RLock()
	order, ok := e.allOrders[orderID]
	e.mu.RUnlock()
	if !ok {
		return ErrOrderNotFound
	}
	if order.UserID != userID {
		return ErrNotOwner
	}

	book := e.bookFor(order.Symbol)
	if err := book.Cancel(orderID); err != nil {
		return err
	}

	e.notifyStatus(*order)
	e.stats.Counter("orders.cancelled").Inc(1)
	return nil
}

// Modify replaces order_id's quantity/price on behalf of user_id, who must
// own the order. On success the engine's all_orders entry is refreshed to
// the book's new in-book identity and a re-run of match() may emit trades
// if the amended order now crosses.
func (e *Engine) Modify(userID UserID, orderID OrderID, newQuantity, newPrice float64) (*Order, error) {
	if newPrice < 0 {
		return nil, ErrNegativePrice
	}
	if _, ok := e.GetUser(userID); !ok {
		return nil, ErrUserNotFound
	}

	e.mu.RLock()
	order, ok := e.allOrders[orderID]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}

	e.mu.RLock()
	book, bookOK := e.books[order.Symbol]
	e.mu.RUnlock()
	if !bookOK {
		return nil, ErrBookNotFound
	}

	replacement, err := book.Modify(orderID, newQuantity, newPrice)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.allOrders[orderID] = replacement
	e.mu.Unlock()

	e.notifyStatus(*replacement)

	trades := book.Match()
	e.notifyTrades(trades)
	e.stats.Counter("orders.modified").Inc(1)
	e.stats.Counter("trades.matched").Inc(int64(len(trades)))

	return replacement, nil
}

// OrderStatus returns the order from all_orders iff ownership matches.
func (e *Engine) OrderStatus(userID UserID, orderID OrderID) (*Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	order, ok := e.allOrders[orderID]
	if !ok || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UserOrders returns every all_orders entry owned by userID. It returns an
// empty (not nil-panicking) slice for an unknown user, matching spec §8's
// boundary behavior ("unknown user_id -> ... return empty").
func (e *Engine) UserOrders(userID UserID) []*Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []*Order
	for _, o := range e.allOrders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// RegisterObserver adds o to the notified set.
func (e *Engine) RegisterObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// UnregisterObserver removes o from the notified set, by identity.
func (e *Engine) UnregisterObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.observers {
		if existing == o {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notifyStatus and notifyTrades copy the observer list under a read lock,
// release it, and only then iterate: no engine or book lock is ever held
// across an observer call (spec §5).
func (e *Engine) notifyStatus(order Order) {
	e.mu.RLock()
	observers := append([]Observer(nil), e.observers...)
	e.mu.RUnlock()
	notifyStatus(observers, order)
}

func (e *Engine) notifyTrades(trades []Trade) {
	if len(trades) == 0 {
		return
	}
	e.mu.RLock()
	observers := append([]Observer(nil), e.observers...)
	e.mu.RUnlock()
	notifyTrades(observers, trades)
}
