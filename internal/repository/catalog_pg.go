package repository

import (
	"context"
	"fmt"
	"strings"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/order"
)

const itemColumns = `id, category_id, name_he, name_en, price, has_toppings, max_toppings, stock, is_hidden`

func (t *pgTx) FindItemsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error) {
	items := make(map[int64]domain.Item, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := t.tx.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.NameHe, &it.NameEn, &it.Price,
			&it.HasToppings, &it.MaxToppings, &it.Stock, &it.IsHidden); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items[it.ID] = it
	}
	return items, rows.Err()
}

func (t *pgTx) FindToppingsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Topping, error) {
	toppings := make(map[int64]domain.Topping, len(ids))
	if len(ids) == 0 {
		return toppings, nil
	}
	rows, err := t.tx.Query(ctx, `SELECT id, name_he, name_en, price FROM toppings WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query toppings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp domain.Topping
		if err := rows.Scan(&tp.ID, &tp.NameHe, &tp.NameEn, &tp.Price); err != nil {
			return nil, fmt.Errorf("scan topping: %w", err)
		}
		toppings[tp.ID] = tp
	}
	return toppings, rows.Err()
}

// DecrementStock is the oversell barrier: a single conditional write
// whose predicate re-checks the stock under the row lock. A concurrent
// order that got there first makes the predicate fail instead of driving
// stock negative.
func (t *pgTx) DecrementStock(ctx context.Context, itemID int64, qty int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE items
		SET stock = stock - $2
		WHERE id = $1 AND stock IS NOT NULL AND stock >= $2
	`, itemID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrInsufficientStock
	}
	return nil
}

// Menu returns every category with its items (toppings attached) plus
// the full topping list, the shape the storefront renders.
func (s *Store) Menu(ctx context.Context) (domain.Menu, error) {
	menu := domain.Menu{Menu: []domain.Category{}, Toppings: []domain.Topping{}}

	catRows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return menu, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()

	catIndex := map[int64]int{}
	for catRows.Next() {
		var c domain.Category
		if err := catRows.Scan(&c.ID, &c.Name); err != nil {
			return menu, fmt.Errorf("scan category: %w", err)
		}
		c.Items = []domain.Item{}
		catIndex[c.ID] = len(menu.Menu)
		menu.Menu = append(menu.Menu, c)
	}
	if err := catRows.Err(); err != nil {
		return menu, err
	}

	itemRows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return menu, fmt.Errorf("query items: %w", err)
	}
	defer itemRows.Close()

	itemIndex := map[int64][2]int{} // item id -> (category slot, item slot)
	for itemRows.Next() {
		var it domain.Item
		if err := itemRows.Scan(&it.ID, &it.CategoryID, &it.NameHe, &it.NameEn, &it.Price,
			&it.HasToppings, &it.MaxToppings, &it.Stock, &it.IsHidden); err != nil {
			return menu, fmt.Errorf("scan item: %w", err)
		}
		it.Toppings = []domain.Topping{}
		ci, ok := catIndex[it.CategoryID]
		if !ok {
			continue
		}
		itemIndex[it.ID] = [2]int{ci, len(menu.Menu[ci].Items)}
		menu.Menu[ci].Items = append(menu.Menu[ci].Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return menu, err
	}

	linkRows, err := s.pool.Query(ctx, `
		SELECT it.item_id, t.id, t.name_he, t.name_en, t.price
		FROM item_toppings it
		JOIN toppings t ON t.id = it.topping_id
		ORDER BY it.item_id, t.id
	`)
	if err != nil {
		return menu, fmt.Errorf("query item toppings: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var itemID int64
		var tp domain.Topping
		if err := linkRows.Scan(&itemID, &tp.ID, &tp.NameHe, &tp.NameEn, &tp.Price); err != nil {
			return menu, fmt.Errorf("scan item topping: %w", err)
		}
		if pos, ok := itemIndex[itemID]; ok {
			item := &menu.Menu[pos[0]].Items[pos[1]]
			item.Toppings = append(item.Toppings, tp)
		}
	}
	if err := linkRows.Err(); err != nil {
		return menu, err
	}

	topRows, err := s.pool.Query(ctx, `SELECT id, name_he, name_en, price FROM toppings ORDER BY id`)
	if err != nil {
		return menu, fmt.Errorf("query toppings: %w", err)
	}
	defer topRows.Close()

	for topRows.Next() {
		var tp domain.Topping
		if err := topRows.Scan(&tp.ID, &tp.NameHe, &tp.NameEn, &tp.Price); err != nil {
			return menu, fmt.Errorf("scan topping: %w", err)
		}
		menu.Toppings = append(menu.Toppings, tp)
	}
	return menu, topRows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory refuses to orphan items.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE category_id = $1`, id).Scan(&count); err != nil {
		return fmt.Errorf("count category items: %w", err)
	}
	if count > 0 {
		return ErrCategoryNotEmpty
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateItem(ctx context.Context, it domain.Item, toppingIDs []int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO items (category_id, name_he, name_en, price, has_toppings, max_toppings, stock, is_hidden)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, it.CategoryID, it.NameHe, it.NameEn, it.Price, it.HasToppings, it.MaxToppings, it.Stock, it.IsHidden).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	for _, tid := range toppingIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO item_toppings (item_id, topping_id) VALUES ($1, $2)`, id, tid); err != nil {
			return 0, fmt.Errorf("link topping %d: %w", tid, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// UpdateItem applies a partial edit. Only the fields the request carried
// are written; a set-but-nil stock clears the ceiling (unlimited).
func (s *Store) UpdateItem(ctx context.Context, id int64, upd domain.ItemUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.NameHe != nil {
		add("name_he", *upd.NameHe)
	}
	if upd.NameEn != nil {
		add("name_en", *upd.NameEn)
	}
	if upd.HasToppings != nil {
		add("has_toppings", *upd.HasToppings)
	}
	if upd.MaxToppings != nil {
		add("max_toppings", *upd.MaxToppings)
	}
	if upd.StockSet {
		add("stock", upd.Stock)
	}
	if upd.IsHidden != nil {
		add("is_hidden", *upd.IsHidden)
	}
	if len(sets) == 0 && upd.Toppings == nil {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE items SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	if upd.Toppings != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM item_toppings WHERE item_id = $1`, id); err != nil {
			return fmt.Errorf("clear topping links: %w", err)
		}
		for _, tid := range upd.Toppings {
			if _, err := tx.Exec(ctx, `INSERT INTO item_toppings (item_id, topping_id) VALUES ($1, $2)`, id, tid); err != nil {
				return fmt.Errorf("link topping %d: %w", tid, err)
			}
		}
	}
	return tx.Commit(ctx)
}

// DeleteItem refuses to break committed orders that reference the item.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_items WHERE item_id = $1`, id).Scan(&count); err != nil {
		return fmt.Errorf("count order references: %w", err)
	}
	if count > 0 {
		return ErrItemInUse
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateTopping(ctx context.Context, t domain.Topping) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO toppings (name_he, name_en, price) VALUES ($1, $2, $3) RETURNING id
	`, t.NameHe, t.NameEn, t.Price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert topping: %w", err)
	}
	return id, nil
}

// DeleteTopping unlinks via ON DELETE CASCADE on item_toppings; order
// line snapshots are unaffected because they carry their own copy.
func (s *Store) DeleteTopping(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM toppings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
