package lx

// Observer is the notification sink an Engine drives on every successful
// state change. Implementations must tolerate being called from arbitrary
// goroutines and must not block the engine for long; a slow or panicking
// observer must not corrupt engine state (spec §4.5).
type Observer interface {
	OnTradeExecuted(trade Trade)
	OnOrderStatusChanged(order Order)
}

// notifyTrades and notifyStatus are called with a private copy of the
// observer slice, taken under a read lock and iterated outside any lock,
// per the copy-before-notify discipline spec §5 requires. A panicking
// observer is recovered so one misbehaving sink cannot take down the
// caller's goroutine; the specification permits but does not require
// swallowing observer faults.
func notifyTrades(observers []Observer, trades []Trade) {
	for _, t := range trades {
		for _, o := range observers {
			notifyOne(func() { o.OnTradeExecuted(t) })
		}
	}
}

func notifyStatus(observers []Observer, order Order) {
	for _, o := range observers {
		notifyOne(func() { o.OnOrderStatusChanged(order) })
	}
}

func notifyOne(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
