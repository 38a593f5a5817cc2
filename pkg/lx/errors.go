package lx

import "errors"

// Sentinel errors returned by Engine and OrderBook operations. Every public
// method reports failure through one of these rather than a panic or an
// exceptional control path.
var (
	ErrUserExists       = errors.New("lx: user already registered")
	ErrUserInvalid      = errors.New("lx: user record invalid")
	ErrUserNotFound     = errors.New("lx: user not found")
	ErrOrderInvalid     = errors.New("lx: order invalid")
	ErrOrderExists      = errors.New("lx: order id already resident")
	ErrOrderNotFound    = errors.New("lx: order not found")
	ErrSymbolMismatch   = errors.New("lx: order symbol does not match book")
	ErrNotOwner         = errors.New("lx: order not owned by user")
	ErrNotModifiable    = errors.New("lx: order is not in a modifiable state")
	ErrNotCancellable   = errors.New("lx: order is not in a cancellable state")
	ErrFillOrKill       = errors.New("lx: fill-or-kill order could not be fully filled")
	ErrInvalidPrice     = errors.New("lx: price out of bounds")
	ErrInvalidQuantity  = errors.New("lx: quantity out of bounds")
	ErrNegativePrice    = errors.New("lx: price must not be negative")
	ErrBookNotFound     = errors.New("lx: no book exists for symbol")
)
