package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/metrics"
)

type Service struct {
	store Store
	bus   Bus
	log   *logrus.Entry
}

func NewService(store Store, bus Bus, log *logrus.Entry) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Place validates req, prices it against the catalog and commits the
// order together with its stock decrements as one transaction. The two
// change events fire only after the commit; a rolled-back attempt fires
// nothing.
func (s *Service) Place(ctx context.Context, req domain.CreateOrderRequest) (int64, error) {
	if req.StudentName == "" || req.StudentClass == "" || req.StudentPhone == "" {
		return 0, ErrMissingCustomer
	}
	if len(req.Items) == 0 {
		return 0, ErrEmptyOrder
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return 0, &InvalidQuantityError{ItemID: line.ItemID, Quantity: line.Quantity}
		}
	}

	var (
		orderID int64
		total   float64
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		items, err := tx.FindItemsByIDs(ctx, itemIDs(req.Items))
		if err != nil {
			return fmt.Errorf("resolve items: %w", err)
		}
		toppings, err := tx.FindToppingsByIDs(ctx, toppingIDs(req.Items))
		if err != nil {
			return fmt.Errorf("resolve toppings: %w", err)
		}

		o := domain.Order{
			StudentName:  req.StudentName,
			StudentClass: req.StudentClass,
			StudentPhone: req.StudentPhone,
			Status:       domain.StatusPending,
		}
		for _, line := range req.Items {
			item, ok := items[line.ItemID]
			if !ok || item.IsHidden {
				// Unresolvable ids are dropped from the order rather
				// than rejecting it, matching the lenient upstream
				// behavior.
				continue
			}
			if item.Stock != nil {
				if *item.Stock < line.Quantity {
					return &InsufficientStockError{ItemName: item.DisplayName()}
				}
				if err := tx.DecrementStock(ctx, item.ID, line.Quantity); err != nil {
					if errors.Is(err, ErrInsufficientStock) {
						return &InsufficientStockError{ItemName: item.DisplayName()}
					}
					return fmt.Errorf("decrement stock for item %d: %w", item.ID, err)
				}
			}
			// Topping prices are captured on the line but not billed;
			// the total is item price times quantity only.
			o.TotalPrice += item.Price * float64(line.Quantity)
			o.Lines = append(o.Lines, domain.OrderLine{
				ItemID:       item.ID,
				Quantity:     line.Quantity,
				PriceAtOrder: item.Price,
				Toppings:     snapshotToppings(line.Toppings, toppings),
			})
		}

		id, err := tx.InsertOrderWithLines(ctx, &o)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id
		total = o.TotalPrice
		return nil
	})
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		return 0, err
	}

	metrics.OrdersTotal.WithLabelValues("placed").Inc()
	s.log.WithFields(logrus.Fields{"order_id": orderID, "total": total}).Info("order placed")
	s.bus.Broadcast(domain.OrdersUpdated)
	s.bus.Broadcast(domain.MenuUpdated)
	return orderID, nil
}

// List returns all orders, newest first, with their committed lines.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.store.ListOrders(ctx)
}

// SetStatus moves an order between pending and completed and notifies
// viewers.
func (s *Service) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"order_id": id, "status": string(status)}).Info("order status updated")
	s.bus.Broadcast(domain.OrdersUpdated)
	return nil
}

// itemIDs returns the distinct item ids in request order.
func itemIDs(lines []domain.CreateOrderLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		ids = append(ids, l.ItemID)
	}
	return ids
}

func toppingIDs(lines []domain.CreateOrderLine) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, l := range lines {
		for _, t := range l.Toppings {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// snapshotToppings resolves the selected topping ids against the catalog
// read, freezing identity and price at commit time. Unknown ids are
// dropped.
func snapshotToppings(selected []domain.ToppingSelection, resolved map[int64]domain.Topping) []domain.Topping {
	snap := make([]domain.Topping, 0, len(selected))
	for _, sel := range selected {
		if t, ok := resolved[sel.ID]; ok {
			snap = append(snap, t)
		}
	}
	return snap
}
