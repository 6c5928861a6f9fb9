package order_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/order"
)

// fakeStore implements order.Store in memory with real rollback
// semantics: stock changes and inserted orders made inside a failed
// WithinTx are restored.
type fakeStore struct {
	mu       sync.Mutex
	items    map[int64]domain.Item
	toppings map[int64]domain.Topping
	orders   []domain.Order
	nextID   int64

	failInsert      bool
	failDecrementAt int // 1-based decrement call that fails with an infra error
	decrements      int
}

func newFakeStore(items ...domain.Item) *fakeStore {
	s := &fakeStore{
		items:    make(map[int64]domain.Item),
		toppings: make(map[int64]domain.Topping),
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeStore) addTopping(t domain.Topping) { s.toppings[t.ID] = t }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedStocks := make(map[int64]*int, len(s.items))
	for id, it := range s.items {
		if it.Stock != nil {
			v := *it.Stock
			savedStocks[id] = &v
		} else {
			savedStocks[id] = nil
		}
	}
	savedOrders := len(s.orders)

	if err := fn(ctx, &fakeTx{s: s}); err != nil {
		for id, st := range savedStocks {
			it := s.items[id]
			it.Stock = st
			s.items[id] = it
		}
		s.orders = s.orders[:savedOrders]
		return err
	}
	return nil
}

func (s *fakeStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i])
	}
	return out, nil
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return nil
		}
	}
	return order.ErrOrderNotFound
}

func (s *fakeStore) stockFor(id int64) *int { // caller holds no lock in tests after Place returns
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Stock
}

func (s *fakeStore) committedOrders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) FindItemsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error) {
	found := make(map[int64]domain.Item, len(ids))
	for _, id := range ids {
		if it, ok := t.s.items[id]; ok {
			found[id] = it
		}
	}
	return found, nil
}

func (t *fakeTx) FindToppingsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Topping, error) {
	found := make(map[int64]domain.Topping, len(ids))
	for _, id := range ids {
		if tp, ok := t.s.toppings[id]; ok {
			found[id] = tp
		}
	}
	return found, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, itemID int64, qty int) error {
	t.s.decrements++
	if t.s.failDecrementAt > 0 && t.s.decrements == t.s.failDecrementAt {
		return errors.New("connection reset by peer")
	}
	it, ok := t.s.items[itemID]
	if !ok || it.Stock == nil {
		return nil
	}
	if *it.Stock < qty {
		return order.ErrInsufficientStock
	}
	v := *it.Stock - qty
	it.Stock = &v
	t.s.items[itemID] = it
	return nil
}

func (t *fakeTx) InsertOrderWithLines(ctx context.Context, o *domain.Order) (int64, error) {
	if t.s.failInsert {
		return 0, errors.New("connection reset by peer")
	}
	t.s.nextID++
	o.ID = t.s.nextID
	o.CreatedAt = time.Now()
	t.s.orders = append(t.s.orders, *o)
	return o.ID, nil
}

type fakeBus struct {
	mu    sync.Mutex
	kinds []domain.EventKind
}

func (b *fakeBus) Broadcast(kind domain.EventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kinds = append(b.kinds, kind)
}

func (b *fakeBus) events() []domain.EventKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.EventKind, len(b.kinds))
	copy(out, b.kinds)
	return out
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func intPtr(n int) *int { return &n }

func stockItem(id int64, name string, price float64, stock int) domain.Item {
	return domain.Item{ID: id, NameEn: name, Price: price, Stock: intPtr(stock)}
}

func validRequest(lines ...domain.CreateOrderLine) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		StudentName:  "Dana",
		StudentClass: "8B",
		StudentPhone: "050-1234567",
		Items:        lines,
	}
}

func TestPlaceRejectsEmptyOrder(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	_, err := svc.Place(context.Background(), validRequest())
	assert.ErrorIs(t, err, order.ErrEmptyOrder)
	assert.Empty(t, bus.events())
	assert.Empty(t, store.committedOrders())
}

func TestPlaceRejectsMissingCustomerFields(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	svc := order.NewService(store, &fakeBus{}, testLogger())

	base := validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1})
	cases := map[string]func(*domain.CreateOrderRequest){
		"name":  func(r *domain.CreateOrderRequest) { r.StudentName = "" },
		"class": func(r *domain.CreateOrderRequest) { r.StudentClass = "" },
		"phone": func(r *domain.CreateOrderRequest) { r.StudentPhone = "" },
	}
	for name, blank := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			blank(&req)
			_, err := svc.Place(context.Background(), req)
			assert.ErrorIs(t, err, order.ErrMissingCustomer)
		})
	}
}

func TestPlaceRejectsNonPositiveQuantity(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	svc := order.NewService(store, &fakeBus{}, testLogger())

	for _, qty := range []int{0, -1} {
		_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: qty}))
		var qtyErr *order.InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, qty, qtyErr.Quantity)
	}
}

func TestPlaceUsesAuthoritativePricing(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	svc := order.NewService(store, &fakeBus{}, testLogger())

	// The request claims the item costs 1; the catalog says 10.
	id, err := svc.Place(context.Background(), validRequest(
		domain.CreateOrderLine{ItemID: 1, Quantity: 2, Price: 1},
	))
	require.NoError(t, err)

	orders := store.committedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.InDelta(t, 20.0, orders[0].TotalPrice, 1e-9)
	require.Len(t, orders[0].Lines, 1)
	assert.InDelta(t, 10.0, orders[0].Lines[0].PriceAtOrder, 1e-9)
	assert.Equal(t, domain.StatusPending, orders[0].Status)
}

func TestPlaceInsufficientStockNamesItem(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 1))
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 2}))
	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Pizza Slice", stockErr.ItemName)

	require.NotNil(t, store.stockFor(1))
	assert.Equal(t, 1, *store.stockFor(1), "failed order must not change stock")
	assert.Empty(t, store.committedOrders())
	assert.Empty(t, bus.events())
}

func TestPlaceSkipsUnknownAndHiddenItems(t *testing.T) {
	hidden := stockItem(2, "Secret", 50, 5)
	hidden.IsHidden = true
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5), hidden)
	svc := order.NewService(store, &fakeBus{}, testLogger())

	_, err := svc.Place(context.Background(), validRequest(
		domain.CreateOrderLine{ItemID: 1, Quantity: 1},
		domain.CreateOrderLine{ItemID: 999, Quantity: 3},
		domain.CreateOrderLine{ItemID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	orders := store.committedOrders()
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 1, "unknown and hidden lines are dropped")
	assert.Equal(t, int64(1), orders[0].Lines[0].ItemID)
	assert.InDelta(t, 10.0, orders[0].TotalPrice, 1e-9)
	assert.Equal(t, 5, *store.stockFor(2), "hidden item stock untouched")
}

func TestPlaceRollsBackAllDecrementsOnMidTransactionFailure(t *testing.T) {
	store := newFakeStore(
		stockItem(1, "Pizza Slice", 10, 5),
		stockItem(2, "Cola", 6, 5),
	)
	store.failDecrementAt = 2
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	_, err := svc.Place(context.Background(), validRequest(
		domain.CreateOrderLine{ItemID: 1, Quantity: 2},
		domain.CreateOrderLine{ItemID: 2, Quantity: 1},
	))
	require.Error(t, err)

	assert.Equal(t, 5, *store.stockFor(1), "first line's decrement must be rolled back")
	assert.Equal(t, 5, *store.stockFor(2))
	assert.Empty(t, store.committedOrders())
	assert.Empty(t, bus.events())
}

func TestPlaceNotifiesOnlyAfterCommit(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	store.failInsert = true
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.Error(t, err)
	assert.Empty(t, bus.events(), "a rolled-back attempt must fire nothing")
	assert.Equal(t, 5, *store.stockFor(1))

	store.failInsert = false
	_, err = svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, []domain.EventKind{domain.OrdersUpdated, domain.MenuUpdated}, bus.events())
}

func TestPlaceSnapshotsToppingsWithoutBillingThem(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	store.addTopping(domain.Topping{ID: 7, NameEn: "Olives", Price: 2})
	svc := order.NewService(store, &fakeBus{}, testLogger())

	_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{
		ItemID:   1,
		Quantity: 2,
		Toppings: []domain.ToppingSelection{{ID: 7}, {ID: 999}},
	}))
	require.NoError(t, err)

	orders := store.committedOrders()
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 1)
	require.Len(t, orders[0].Lines[0].Toppings, 1, "unknown topping ids are dropped")
	assert.Equal(t, "Olives", orders[0].Lines[0].Toppings[0].NameEn)
	assert.InDelta(t, 2.0, orders[0].Lines[0].Toppings[0].Price, 1e-9)
	assert.InDelta(t, 20.0, orders[0].TotalPrice, 1e-9, "topping prices are not billed")
}

func TestPlaceUnlimitedStockNeverDecrements(t *testing.T) {
	unlimited := domain.Item{ID: 3, NameEn: "Water", Price: 4}
	store := newFakeStore(unlimited)
	svc := order.NewService(store, &fakeBus{}, testLogger())

	_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 3, Quantity: 1000}))
	require.NoError(t, err)
	assert.Nil(t, store.stockFor(3))
	assert.Zero(t, store.decrements)
}

func TestSequentialExhaustion(t *testing.T) {
	store := newFakeStore(stockItem(1, "X", 5, 1))
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	id, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "X", stockErr.ItemName)

	orders := store.committedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.InDelta(t, 5.0, orders[0].TotalPrice, 1e-9)
	require.Len(t, orders[0].Lines, 1)
	assert.Equal(t, 1, orders[0].Lines[0].Quantity)
	assert.Equal(t, 0, *store.stockFor(1))
	assert.Equal(t, []domain.EventKind{domain.OrdersUpdated, domain.MenuUpdated}, bus.events())
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	const (
		initialStock = 5
		attempts     = 20
	)
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, initialStock))
	svc := order.NewService(store, &fakeBus{}, testLogger())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var stockErr *order.InsufficientStockError
			if errors.As(err, &stockErr) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, initialStock, succeeded)
	assert.Equal(t, attempts-initialStock, rejected)
	assert.Equal(t, 0, *store.stockFor(1))
	assert.Len(t, store.committedOrders(), initialStock)
}

func TestSetStatus(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	bus := &fakeBus{}
	svc := order.NewService(store, bus, testLogger())

	id, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), id, domain.StatusCompleted))
	orders := store.committedOrders()
	assert.Equal(t, domain.StatusCompleted, orders[0].Status)
	assert.Equal(t, domain.OrdersUpdated, bus.events()[len(bus.events())-1])

	assert.ErrorIs(t, svc.SetStatus(context.Background(), id, "shipped"), order.ErrInvalidStatus)
	assert.ErrorIs(t, svc.SetStatus(context.Background(), 999, domain.StatusCompleted), order.ErrOrderNotFound)
}

func TestListReturnsNewestFirst(t *testing.T) {
	store := newFakeStore(stockItem(1, "Pizza Slice", 10, 5))
	svc := order.NewService(store, &fakeBus{}, testLogger())

	first, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.Place(context.Background(), validRequest(domain.CreateOrderLine{ItemID: 1, Quantity: 1}))
	require.NoError(t, err)

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)
}
