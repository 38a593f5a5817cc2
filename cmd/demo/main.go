// Command demo drives a fixed sequence of scenarios against a fresh
// Engine and prints every trade and status change as it happens, the way
// the reference implementation's own test harness wires a console
// observer and narrates its run.
package main

import (
	"flag"
	"fmt"

	"github.com/shahsb/In-Memory-Trading-System/pkg/lx"
	"github.com/shahsb/In-Memory-Trading-System/pkg/metrics"
	"github.com/shahsb/In-Memory-Trading-System/pkg/observers"
	"github.com/shahsb/In-Memory-Trading-System/pkg/wsfeed"
)

// consoleObserver prints every event it receives, mirroring the original
// system's TestObserver.
type consoleObserver struct{}

func (consoleObserver) OnTradeExecuted(t lx.Trade) {
	fmt.Printf("  TRADE  %s  %s  qty=%.2f price=%.2f  buy=%s sell=%s\n",
		t.ID, t.Symbol, t.Quantity, t.Price, t.BuyOrderID, t.SellOrderID)
}

func (consoleObserver) OnOrderStatusChanged(o lx.Order) {
	fmt.Printf("  ORDER  %s  %s %s  status=%s filled=%.2f/%.2f\n",
		o.ID, o.Symbol, o.Side, o.Status, o.FilledQuantity, o.Quantity)
}

func main() {
	metricsPort := flag.String("metrics-port", "", "if set, serve Prometheus metrics on this port")
	natsURL := flag.String("nats-url", "", "if set, publish trade/order events to this NATS server")
	zmqBind := flag.String("zmq-bind", "", "if set, publish trade/order events on this ZeroMQ PUB address (e.g. tcp://*:5556)")
	wsPort := flag.Int("ws-port", 0, "if set, serve a /feed websocket broadcaster on this port")
	flag.Parse()

	engine := lx.NewEngine()
	engine.RegisterObserver(consoleObserver{})

	if *metricsPort != "" {
		collector := metrics.NewCollector("lx")
		engine.RegisterObserver(collector)
		if err := collector.StartServer(*metricsPort); err != nil {
			fmt.Println("failed to start metrics server:", err)
		}
	}

	if *natsURL != "" {
		natsObserver, err := observers.NewNATSObserver(*natsURL)
		if err != nil {
			fmt.Println("failed to connect to NATS:", err)
		} else {
			defer natsObserver.Close()
			engine.RegisterObserver(natsObserver)
		}
	}

	if *zmqBind != "" {
		zmqObserver, err := observers.NewZMQObserver(*zmqBind)
		if err != nil {
			fmt.Println("failed to bind ZeroMQ PUB socket:", err)
		} else {
			defer zmqObserver.Close()
			engine.RegisterObserver(zmqObserver)
		}
	}

	if *wsPort != 0 {
		feed := wsfeed.NewServer()
		engine.RegisterObserver(feed)
		go func() {
			if err := feed.Start(*wsPort); err != nil {
				fmt.Println("websocket feed server failed:", err)
			}
		}()
		defer feed.Stop()
	}

	users := []lx.User{
		{ID: "U1", Name: "Asha Rao", Phone: "555-0101", Email: "asha@example.com"},
		{ID: "U2", Name: "Ben Iyer", Phone: "555-0102", Email: "ben@example.com"},
		{ID: "U3", Name: "Chitra Nair", Phone: "555-0103", Email: "chitra@example.com"},
	}
	for _, u := range users {
		if err := engine.RegisterUser(u); err != nil {
			fmt.Println("failed to register user:", err)
			return
		}
	}

	section("S1: symmetric cross")
	mustPlace(engine, "U2", lx.Buy, "WIPRO", 100, 500.0)
	mustPlace(engine, "U3", lx.Sell, "WIPRO", 100, 500.0)

	section("S2: price-time priority")
	mustPlace(engine, "U1", lx.Buy, "INFY", 100, 1800.0)
	mustPlace(engine, "U1", lx.Buy, "INFY", 100, 1800.0)
	mustPlace(engine, "U1", lx.Sell, "INFY", 100, 1800.0)

	section("S3: partial fill")
	buy := mustPlace(engine, "U1", lx.Buy, "SBIN", 1000, 600.0)
	mustPlace(engine, "U2", lx.Sell, "SBIN", 300, 600.0)
	mustPlace(engine, "U2", lx.Sell, "SBIN", 400, 600.0)
	printStatus(engine, "U1", buy.ID)

	section("S4: cancel idempotence")
	cancelMe := mustPlace(engine, "U1", lx.Buy, "TCS", 50, 3200.0)
	if err := engine.Cancel("U1", cancelMe.ID); err != nil {
		fmt.Println("  unexpected cancel failure:", err)
	}
	if err := engine.Cancel("U1", cancelMe.ID); err == nil {
		fmt.Println("  unexpected: second cancel succeeded")
	} else {
		fmt.Println("  second cancel correctly failed:", err)
	}

	section("S5: amend")
	amendMe := mustPlace(engine, "U1", lx.Buy, "HDFC", 100, 1500.0)
	if _, err := engine.Modify("U1", amendMe.ID, 150, 1600.0); err != nil {
		fmt.Println("  unexpected modify failure:", err)
	}
	printStatus(engine, "U1", amendMe.ID)

	section("S6: negative price rejection")
	if _, err := engine.PlaceGTC("U1", lx.Buy, "RELIANCE", 100, -100.0); err == nil {
		fmt.Println("  unexpected: negative price accepted")
	} else {
		fmt.Println("  correctly rejected:", err)
	}

	section("S7: no cross on stale ask")
	mustPlace(engine, "U1", lx.Buy, "AXIS", 10, 1000.0)
	mustPlace(engine, "U2", lx.Sell, "AXIS", 10, 1010.0)
	fmt.Println()
}

func section(title string) {
	fmt.Println()
	fmt.Println(title)
}

func mustPlace(e *lx.Engine, userID lx.UserID, side lx.Side, symbol string, qty, price float64) *lx.Order {
	order, err := e.PlaceGTC(userID, side, symbol, qty, price)
	if err != nil {
		fmt.Printf("  place failed: %v\n", err)
		return &lx.Order{}
	}
	return order
}

func printStatus(e *lx.Engine, userID lx.UserID, orderID lx.OrderID) {
	order, err := e.OrderStatus(userID, orderID)
	if err != nil {
		fmt.Println("  order_status failed:", err)
		return
	}
	fmt.Printf("  order_status: qty=%.2f price=%.2f status=%s\n", order.Quantity, order.Price, order.Status)
}
