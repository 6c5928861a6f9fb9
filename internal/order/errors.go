package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrMissingCustomer = errors.New("student name, class and phone are required")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrInsufficientStock is returned by Catalog.DecrementStock when the
	// conditional update matches no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the item that could not be fulfilled so
// the customer can adjust that line.
type InsufficientStockError struct {
	ItemName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for item: %s", e.ItemName)
}

type InvalidQuantityError struct {
	ItemID   int64
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for item %d", e.Quantity, e.ItemID)
}
