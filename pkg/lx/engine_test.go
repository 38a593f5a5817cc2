package lx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(id UserID) User {
	return User{ID: id, Name: "Name " + string(id), Phone: "555-0100", Email: string(id) + "@example.com"}
}

func newTestEngine(t *testing.T, ids ...UserID) *Engine {
	e := NewEngine()
	for _, id := range ids {
		require.NoError(t, e.RegisterUser(testUser(id)))
	}
	return e
}

// S1: Symmetric cross.
func TestEngineSymmetricCross(t *testing.T) {
	e := newTestEngine(t, "U2", "U3")

	buy, err := e.PlaceGTC("U2", Buy, "WIPRO", 100, 500.0)
	require.NoError(t, err)

	sell, err := e.PlaceGTC("U3", Sell, "WIPRO", 100, 500.0)
	require.NoError(t, err)

	assert.Equal(t, Filled, buy.Status)
	assert.Equal(t, Filled, sell.Status)
	assert.Equal(t, 0.0, buy.Remaining())
	assert.Equal(t, 0.0, sell.Remaining())
}

// S2: Price-time priority.
func TestEnginePriceTimePriority(t *testing.T) {
	e := newTestEngine(t, "U1")

	first, err := e.PlaceGTC("U1", Buy, "INFY", 100, 1800.0)
	require.NoError(t, err)

	second, err := e.PlaceGTC("U1", Buy, "INFY", 100, 1800.0)
	require.NoError(t, err)
	if !first.Timestamp.Before(second.Timestamp) {
		t.Fatalf("expected first order's timestamp to precede the second")
	}

	_, err = e.PlaceGTC("U1", Sell, "INFY", 100, 1800.0)
	require.NoError(t, err)

	gotFirst, err := e.OrderStatus("U1", first.ID)
	require.NoError(t, err)
	if gotFirst.Status != Filled {
		t.Fatalf("expected the earlier order to be filled first, got status %s", gotFirst.Status)
	}

	gotSecond, err := e.OrderStatus("U1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, Accepted, gotSecond.Status)
}

// S3: Partial fill.
func TestEnginePartialFill(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")

	buy, err := e.PlaceGTC("U1", Buy, "SBIN", 1000, 600.0)
	require.NoError(t, err)

	_, err = e.PlaceGTC("U2", Sell, "SBIN", 300, 600.0)
	require.NoError(t, err)
	_, err = e.PlaceGTC("U2", Sell, "SBIN", 400, 600.0)
	require.NoError(t, err)

	got, err := e.OrderStatus("U1", buy.ID)
	require.NoError(t, err)
	assert.Equal(t, PartiallyFilled, got.Status)
	assert.Equal(t, 700.0, got.FilledQuantity)
	assert.Equal(t, 300.0, got.Remaining())
}

// S4: Cancel idempotence.
func TestEngineCancelIdempotence(t *testing.T) {
	e := newTestEngine(t, "U1")

	order, err := e.PlaceGTC("U1", Buy, "TCS", 50, 3200.0)
	require.NoError(t, err)

	require.NoError(t, e.Cancel("U1", order.ID))

	got, err := e.OrderStatus("U1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, got.Status)

	err = e.Cancel("U1", order.ID)
	if err == nil {
		t.Fatal("expected second cancel to fail")
	}
}

// S5: Amend.
func TestEngineAmend(t *testing.T) {
	e := newTestEngine(t, "U1")

	order, err := e.PlaceGTC("U1", Buy, "HDFC", 100, 1500.0)
	require.NoError(t, err)

	_, err = e.Modify("U1", order.ID, 150, 1600.0)
	require.NoError(t, err)

	got, err := e.OrderStatus("U1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Quantity)
	assert.Equal(t, 1600.0, got.Price)
	assert.Equal(t, order.ID, got.ID)
}

// S6: Negative price rejection.
func TestEngineNegativePriceRejected(t *testing.T) {
	e := newTestEngine(t, "U1")

	_, err := e.PlaceGTC("U1", Buy, "RELIANCE", 100, -100.0)
	if err == nil {
		t.Fatal("expected negative price to be rejected")
	}
	if len(e.UserOrders("U1")) != 0 {
		t.Fatal("expected no state change after a rejected place")
	}
}

// S7: No cross on stale ask.
func TestEngineNoCrossOnStaleAsk(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")

	_, err := e.PlaceGTC("U1", Buy, "AXIS", 10, 1000.0)
	require.NoError(t, err)
	_, err = e.PlaceGTC("U2", Sell, "AXIS", 10, 1010.0)
	require.NoError(t, err)

	book := e.bookFor("AXIS")
	assert.Equal(t, 1000.0, book.BestBid())
	assert.Equal(t, 1010.0, book.BestAsk())
	assert.Equal(t, 10.0, book.Spread())
}

func TestEngineBoundaryConditions(t *testing.T) {
	e := newTestEngine(t, "U1")

	if _, err := e.PlaceGTC("U1", Buy, "TCS", 0, 100); err == nil {
		t.Error("expected quantity 0 to fail")
	}
	if _, err := e.PlaceGTC("U1", Buy, "TCS", MaxOrderQuantity+1, 100); err == nil {
		t.Error("expected quantity above max to fail")
	}
	if _, err := e.PlaceGTC("U1", Buy, "", 10, 100); err == nil {
		t.Error("expected empty symbol to fail")
	}
	if _, err := e.PlaceGTC("ghost", Buy, "TCS", 10, 100); err == nil {
		t.Error("expected unknown user to fail")
	}
	if err := e.Cancel("ghost", "whatever"); err == nil {
		t.Error("expected cancel by unknown user to fail")
	}
	if _, err := e.Modify("ghost", "whatever", 10, 100); err == nil {
		t.Error("expected modify by unknown user to fail")
	}
	if _, err := e.OrderStatus("ghost", "whatever"); err == nil {
		t.Error("expected order_status for unknown user to fail")
	}
	if orders := e.UserOrders("ghost"); len(orders) != 0 {
		t.Error("expected user_orders for unknown user to be empty")
	}
}

func TestEngineUserOrdersOwnership(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")

	o1, err := e.PlaceGTC("U1", Buy, "TCS", 10, 100)
	require.NoError(t, err)
	o2, err := e.PlaceGTC("U2", Buy, "TCS", 10, 100)
	require.NoError(t, err)

	orders := e.UserOrders("U1")
	require.Len(t, orders, 1)
	assert.Equal(t, o1.ID, orders[0].ID)
	for _, o := range orders {
		assert.NotEqual(t, o2.ID, o.ID)
	}
}

func TestEngineDuplicateUserRejected(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.RegisterUser(testUser("U1")))
	err := e.RegisterUser(testUser("U1"))
	if err != ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestEngineMarketOrderNeverRests(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")

	_, err := e.PlaceGTC("U1", Buy, "NSE", 10, 100.0)
	require.NoError(t, err)

	market, err := e.Place("U2", Sell, "NSE", 15, 0, GTC)
	require.NoError(t, err)

	book := e.bookFor("NSE")
	assert.Equal(t, 10.0, market.FilledQuantity)
	assert.Equal(t, PartiallyFilled, market.Status)
	assert.Equal(t, 0, book.asks.len(), "unfilled market remainder must never rest")
}

type countingObserver struct {
	trades   []Trade
	statuses []Order
}

func (c *countingObserver) OnTradeExecuted(t Trade)      { c.trades = append(c.trades, t) }
func (c *countingObserver) OnOrderStatusChanged(o Order) { c.statuses = append(c.statuses, o) }

func TestEngineObserverNotifications(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")
	obs := &countingObserver{}
	e.RegisterObserver(obs)

	_, err := e.PlaceGTC("U1", Buy, "WIPRO", 100, 500.0)
	require.NoError(t, err)
	_, err = e.PlaceGTC("U2", Sell, "WIPRO", 100, 500.0)
	require.NoError(t, err)

	require.Len(t, obs.trades, 1)
	assert.Equal(t, 500.0, obs.trades[0].Price)
	assert.Equal(t, 100.0, obs.trades[0].Quantity)
	if len(obs.statuses) < 2 {
		t.Fatalf("expected at least 2 status notifications, got %d", len(obs.statuses))
	}

	e.UnregisterObserver(obs)
	_, err = e.PlaceGTC("U1", Buy, "WIPRO", 10, 1.0)
	require.NoError(t, err)
	assert.Len(t, obs.trades, 1, "no further notifications after unregister")
}

func TestEngineFillOrKillRejectsWithNoSideEffect(t *testing.T) {
	e := newTestEngine(t, "U1", "U2")

	_, err := e.PlaceGTC("U1", Sell, "FOK", 5, 10.0)
	require.NoError(t, err)

	_, err = e.Place("U2", Buy, "FOK", 50, 10.0, FOK)
	if err != ErrFillOrKill {
		t.Fatalf("expected ErrFillOrKill, got %v", err)
	}

	book := e.bookFor("FOK")
	assert.Equal(t, 10.0, book.BestAsk())
	assert.Equal(t, 5.0, book.GetSellOrders()[0].Remaining())
}
