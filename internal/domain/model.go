package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item is a menu entry. Stock is nil for unlimited items; a non-nil stock
// is the oversell ceiling enforced during order placement.
type Item struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	NameHe      string    `json:"name_he"`
	NameEn      string    `json:"name_en"`
	Price       float64   `json:"price"`
	HasToppings bool      `json:"has_toppings"`
	MaxToppings int       `json:"max_toppings"`
	Stock       *int      `json:"stock"`
	IsHidden    bool      `json:"is_hidden"`
	Toppings    []Topping `json:"toppings,omitempty"`
}

// DisplayName prefers the English name, falling back to Hebrew.
func (i Item) DisplayName() string {
	if i.NameEn != "" {
		return i.NameEn
	}
	return i.NameHe
}

type Topping struct {
	ID     int64   `json:"id"`
	NameHe string  `json:"name_he"`
	NameEn string  `json:"name_en"`
	Price  float64 `json:"price"`
}

type Order struct {
	ID           int64       `json:"id"`
	StudentName  string      `json:"student_name"`
	StudentClass string      `json:"student_class"`
	StudentPhone string      `json:"student_phone"`
	TotalPrice   float64     `json:"total_price"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	Lines        []OrderLine `json:"items"`
}

// StatusChange is one recorded order-status transition.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderLine captures the item as it existed at commit time: PriceAtOrder
// and the topping snapshot are frozen then, so later menu edits cannot
// rewrite history.
type OrderLine struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	ItemID       int64     `json:"item_id"`
	NameHe       string    `json:"name_he"`
	NameEn       string    `json:"name_en"`
	Quantity     int       `json:"quantity"`
	PriceAtOrder float64   `json:"price"`
	Toppings     []Topping `json:"toppings"`
}
