package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/order"
)

// InsertOrderWithLines writes the order row, one row per line with the
// price and topping snapshot frozen at commit time, and the status-log
// entry. Runs inside the caller's transaction.
func (t *pgTx) InsertOrderWithLines(ctx context.Context, o *domain.Order) (int64, error) {
	var orderID int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (student_name, student_class, student_phone, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`, o.StudentName, o.StudentClass, o.StudentPhone, o.TotalPrice, string(o.Status)).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range o.Lines {
		toppings := line.Toppings
		if toppings == nil {
			toppings = []domain.Topping{}
		}
		blob, err := json.Marshal(toppings)
		if err != nil {
			return 0, fmt.Errorf("marshal toppings for item %d: %w", line.ItemID, err)
		}
		_, err = t.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id, quantity, price_at_order, toppings)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, line.ItemID, line.Quantity, line.PriceAtOrder, blob)
		if err != nil {
			return 0, fmt.Errorf("insert order line for item %d: %w", line.ItemID, err)
		}
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, 'order-service')
	`, orderID, string(o.Status))
	if err != nil {
		return 0, fmt.Errorf("insert status log: %w", err)
	}

	return orderID, nil
}

// ListOrders returns all orders newest first. Line names come from the
// current item row; prices and toppings come from the commit-time
// snapshot.
func (s *Store) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, student_name, student_class, student_phone, total_price, status, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []int64
		index  = map[int64]int{}
	)
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.StudentName, &o.StudentClass, &o.StudentPhone, &o.TotalPrice, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		o.Lines = []domain.OrderLine{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := s.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.item_id, i.name_he, i.name_en, oi.quantity, oi.price_at_order, oi.toppings
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			line domain.OrderLine
			blob []byte
		)
		if err := lineRows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.NameHe, &line.NameEn, &line.Quantity, &line.PriceAtOrder, &blob); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if err := json.Unmarshal(blob, &line.Toppings); err != nil {
			return nil, fmt.Errorf("unmarshal toppings for line %d: %w", line.ID, err)
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateOrderStatus flips the order status and logs the change, in one
// transaction.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, 'admin')
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return tx.Commit(ctx)
}

// StatusLog returns the recorded transitions for one order, oldest first.
func (s *Store) StatusLog(ctx context.Context, orderID int64) ([]domain.StatusChange, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query status log: %w", err)
	}
	defer rows.Close()

	var log []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		var status string
		if err := rows.Scan(&status, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.Status = domain.OrderStatus(status)
		log = append(log, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Every order gets a log row at insert, so an empty log means the
	// order does not exist.
	if log == nil {
		return nil, order.ErrOrderNotFound
	}
	return log, nil
}
