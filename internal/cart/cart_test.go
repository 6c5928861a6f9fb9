package cart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeteria-system/internal/cart"
	"cafeteria-system/internal/domain"
)

func intPtr(n int) *int { return &n }

func item(id int64, price float64, stock *int) domain.Item {
	return domain.Item{ID: id, NameEn: "Item", NameHe: "פריט", Price: price, Stock: stock}
}

func TestAddRejectsWhenStockCeilingExceeded(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, intPtr(4))

	require.NoError(t, c.Add(pizza, 3, nil))
	err := c.Add(pizza, 2, nil)
	assert.ErrorIs(t, err, cart.ErrStockExceeded)
	assert.Equal(t, 3, c.QuantityFor(1), "rejected add must not mutate the cart")
	assert.Len(t, c.Entries(), 1)
}

func TestAddUnlimitedStockNeverRejects(t *testing.T) {
	c := cart.New()
	water := item(2, 4, nil)

	require.NoError(t, c.Add(water, 100, nil))
	require.NoError(t, c.Add(water, 100, nil))
	assert.Equal(t, 200, c.QuantityFor(2))
}

func TestEntriesAreNeverMerged(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, intPtr(10))

	require.NoError(t, c.Add(pizza, 1, nil))
	require.NoError(t, c.Add(pizza, 1, nil))
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestTotalIncludesToppingPrices(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, nil)
	toppings := []domain.Topping{{ID: 1, Price: 1}, {ID: 2, Price: 2}}

	require.NoError(t, c.Add(pizza, 2, toppings))
	assert.InDelta(t, 26.0, c.Total(), 1e-9) // (10+1+2)*2
}

func TestTotalSumsAcrossEntries(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.Add(item(1, 10, nil), 1, nil))
	require.NoError(t, c.Add(item(2, 6, nil), 3, nil))
	assert.InDelta(t, 28.0, c.Total(), 1e-9)
	assert.Equal(t, 4, c.Count())
}

func TestTotalIsSnapshotBased(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, nil)
	require.NoError(t, c.Add(pizza, 1, nil))

	// A later price change on the menu item must not move the cart total.
	pizza.Price = 99
	assert.InDelta(t, 10.0, c.Total(), 1e-9)
}

func TestRemoveIgnoresOutOfRange(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.Add(item(1, 10, nil), 1, nil))

	c.Remove(-1)
	c.Remove(5)
	assert.Len(t, c.Entries(), 1)

	c.Remove(0)
	assert.Empty(t, c.Entries())
}

func TestClear(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.Add(item(1, 10, nil), 2, nil))
	c.Clear()
	assert.Empty(t, c.Entries())
	assert.Zero(t, c.Total())
	assert.Zero(t, c.QuantityFor(1))
}

func TestStockGuardCountsAcrossEntries(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, intPtr(3))
	cola := item(2, 6, intPtr(5))

	require.NoError(t, c.Add(pizza, 2, nil))
	require.NoError(t, c.Add(cola, 5, nil))
	require.NoError(t, c.Add(pizza, 1, nil))

	assert.ErrorIs(t, c.Add(pizza, 1, nil), cart.ErrStockExceeded)
	assert.ErrorIs(t, c.Add(cola, 1, nil), cart.ErrStockExceeded)
}

func TestRequestBuildsSubmissionPayload(t *testing.T) {
	c := cart.New()
	pizza := item(1, 10, nil)
	require.NoError(t, c.Add(pizza, 2, []domain.Topping{{ID: 7, Price: 1}}))

	req := c.Request("Dana", "8B", "050-1234567")
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(1), req.Items[0].ItemID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	require.Len(t, req.Items[0].Toppings, 1)
	assert.Equal(t, int64(7), req.Items[0].Toppings[0].ID)
	assert.Equal(t, "Dana", req.StudentName)
}
