package order

import (
	"context"

	"cafeteria-system/internal/domain"
)

// Catalog is the item/topping side of the backing store, scoped to the
// transaction it was obtained from.
type Catalog interface {
	FindItemsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
	FindToppingsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Topping, error)

	// DecrementStock subtracts qty from the item's stock as one
	// conditional write: it succeeds only while enough stock remains and
	// returns ErrInsufficientStock otherwise. Two transactions hitting
	// the same item serialize here; disjoint items never block each
	// other.
	DecrementStock(ctx context.Context, itemID int64, qty int) error
}

// Ledger is the durable side for committed orders.
type Ledger interface {
	InsertOrderWithLines(ctx context.Context, o *domain.Order) (int64, error)
}

// Tx is one open store transaction.
type Tx interface {
	Catalog
	Ledger
}

// Store runs fn inside a single transaction. Any error from fn rolls the
// whole transaction back: no partial stock decrement or partial order is
// ever observable.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error
}

// Bus fans change notifications out to connected viewers. Broadcast is
// fire-and-forget: it must not block and must never surface delivery
// errors to the caller.
type Bus interface {
	Broadcast(kind domain.EventKind)
}
