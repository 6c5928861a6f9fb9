// Package cart is the client-local staging area for an order before
// submission. Its stock guard mirrors the server-side check so the user
// hits the ceiling at add time; the server check remains the authority.
package cart

import (
	"errors"

	"github.com/google/uuid"

	"cafeteria-system/internal/domain"
)

// ErrStockExceeded rejects an add that would push the staged quantity
// for an item past its stock ceiling.
var ErrStockExceeded = errors.New("not enough stock")

// Entry is one staged line. All item fields are snapshotted at add time,
// so later menu edits cannot change a cart retroactively.
type Entry struct {
	ID       string
	ItemID   int64
	NameHe   string
	NameEn   string
	Price    float64
	Quantity int
	Toppings []domain.Topping
	Stock    *int
}

type Cart struct {
	entries []Entry
}

func New() *Cart { return &Cart{} }

// Add stages quantity of item with the selected toppings. The add is
// rejected without mutating the cart when the item has a stock ceiling
// and the already-staged quantity plus this one would exceed it. Entries
// are never merged: repeat adds stay separate lines.
func (c *Cart) Add(item domain.Item, quantity int, toppings []domain.Topping) error {
	if item.Stock != nil && c.QuantityFor(item.ID)+quantity > *item.Stock {
		return ErrStockExceeded
	}
	snap := make([]domain.Topping, len(toppings))
	copy(snap, toppings)
	c.entries = append(c.entries, Entry{
		ID:       uuid.NewString(),
		ItemID:   item.ID,
		NameHe:   item.NameHe,
		NameEn:   item.NameEn,
		Price:    item.Price,
		Quantity: quantity,
		Toppings: snap,
		Stock:    item.Stock,
	})
	return nil
}

// Remove drops the entry at index; out-of-range indexes are ignored.
func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.entries) {
		return
	}
	c.entries = append(c.entries[:index], c.entries[index+1:]...)
}

// Clear empties the cart, used after a successful submission.
func (c *Cart) Clear() { c.entries = nil }

// Total recomputes the staged price on every call:
// (item price + topping prices) * quantity, summed over entries.
func (c *Cart) Total() float64 {
	var total float64
	for _, e := range c.entries {
		var toppings float64
		for _, t := range e.Toppings {
			toppings += t.Price
		}
		total += (e.Price + toppings) * float64(e.Quantity)
	}
	return total
}

// QuantityFor sums staged quantities across all entries for one item;
// it feeds both the stock guard and the storefront badge.
func (c *Cart) QuantityFor(itemID int64) int {
	n := 0
	for _, e := range c.entries {
		if e.ItemID == itemID {
			n += e.Quantity
		}
	}
	return n
}

// Count is the total staged quantity across all entries.
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Entries returns a copy of the staged lines in add order.
func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Request builds the submission payload from the staged lines.
func (c *Cart) Request(name, class, phone string) domain.CreateOrderRequest {
	req := domain.CreateOrderRequest{
		StudentName:  name,
		StudentClass: class,
		StudentPhone: phone,
	}
	for _, e := range c.entries {
		line := domain.CreateOrderLine{ItemID: e.ItemID, Quantity: e.Quantity}
		for _, t := range e.Toppings {
			line.Toppings = append(line.Toppings, domain.ToppingSelection{ID: t.ID})
		}
		req.Items = append(req.Items, line)
	}
	return req
}
