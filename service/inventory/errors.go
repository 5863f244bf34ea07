package inventory

import "errors"

var (
	// ErrNotFound covers unknown and soft-deleted references alike.
	ErrNotFound = errors.New("inventory: reference not found")
	// ErrInvalidQuantity rejects non-positive quantities.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInsufficientBalance rejects shipments past the lot's remaining
	// balance, and lot corrections below the already-shipped total.
	ErrInsufficientBalance = errors.New("inventory: quantity exceeds remaining balance")
)
