package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cafeteria-system/internal/order"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCategoryNotEmpty = errors.New("cannot delete category with items")
	ErrItemInUse        = errors.New("cannot delete item that is part of an order")
)

// Store is the pgx-backed catalog store and order ledger.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// WithinTx runs fn in one database transaction. Any error from fn rolls
// everything back, so stock decrements and order rows land together or
// not at all.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgTx exposes the tx-scoped catalog and ledger operations.
type pgTx struct {
	tx pgx.Tx
}
