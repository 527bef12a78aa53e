package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when an order is attempted on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)
