package service

import "errors"

var (
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidReason     = errors.New("invalid adjustment reason")
	ErrProductNotLinked  = errors.New("product is not linked to a catalog provider")
	ErrNoLocations       = errors.New("product has no inventory locations")
	ErrCartContention    = errors.New("cart update kept conflicting, giving up")
)
