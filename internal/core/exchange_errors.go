package core

import "errors"

var (
	// ErrExchangeInsufficientBalance indicates the exchange itself rejected the
	// action for lack of funds, i.e. the advisory balance guard was stale.
	ErrExchangeInsufficientBalance = errors.New("exchange: insufficient balance")
	// ErrDuplicateOrder indicates the client order id has already been accepted before.
	ErrDuplicateOrder = errors.New("duplicate order")
	// ErrOrderNotFound indicates the order does not exist on the exchange.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderRejected indicates the order was rejected by the exchange.
	ErrOrderRejected = errors.New("order rejected")
	// ErrOrderExpired indicates the order has expired on the exchange.
	ErrOrderExpired = errors.New("order expired")
)
