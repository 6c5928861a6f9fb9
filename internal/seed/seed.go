package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Run populates the demo catalog when the database is empty. Repeated
// runs are no-ops.
func Run(ctx context.Context, pool *pgxpool.Pool, log *logrus.Entry) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	log.Info("seeding catalog")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	categories := map[string]int64{}
	for _, name := range []string{"Pizza", "Drinks", "Snacks"} {
		var id int64
		if err := tx.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
			return fmt.Errorf("insert category %s: %w", name, err)
		}
		categories[name] = id
	}

	items := []struct {
		category    string
		nameHe      string
		nameEn      string
		price       float64
		hasToppings bool
	}{
		{"Pizza", "משולש פיצה", "Pizza Slice", 10, true},
		{"Drinks", "קולה", "Cola", 6, false},
		{"Drinks", "מים", "Water", 4, false},
		{"Snacks", "במבה", "Bamba", 5, false},
	}
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO items (category_id, name_he, name_en, price, has_toppings)
			VALUES ($1, $2, $3, $4, $5)
		`, categories[it.category], it.nameHe, it.nameEn, it.price, it.hasToppings)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.nameEn, err)
		}
	}

	toppings := []struct {
		nameHe string
		nameEn string
	}{
		{"זיתים", "Olives"},
		{"תירס", "Corn"},
		{"פטריות", "Mushrooms"},
	}
	for _, t := range toppings {
		if _, err := tx.Exec(ctx, `INSERT INTO toppings (name_he, name_en, price) VALUES ($1, $2, 0)`, t.nameHe, t.nameEn); err != nil {
			return fmt.Errorf("insert topping %s: %w", t.nameEn, err)
		}
	}

	return tx.Commit(ctx)
}
