package domain

import "encoding/json"

// ToppingSelection references a topping by id. Clients send full topping
// objects; everything except the id is ignored and re-resolved against
// the catalog.
type ToppingSelection struct {
	ID int64 `json:"id"`
}

// CreateOrderLine is one requested line. Price is accepted for wire
// compatibility and deliberately ignored: totals always come from the
// catalog price.
type CreateOrderLine struct {
	ItemID   int64              `json:"item_id"`
	Quantity int                `json:"quantity"`
	Price    float64            `json:"price,omitempty"`
	Toppings []ToppingSelection `json:"toppings,omitempty"`
}

type CreateOrderRequest struct {
	StudentName  string            `json:"student_name"`
	StudentClass string            `json:"student_class"`
	StudentPhone string            `json:"student_phone"`
	Items        []CreateOrderLine `json:"items"`
}

type CreateOrderResponse struct {
	Success bool  `json:"success"`
	OrderID int64 `json:"orderId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type Menu struct {
	Menu     []Category `json:"menu"`
	Toppings []Topping  `json:"toppings"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type CreateItemRequest struct {
	CategoryID  int64   `json:"category_id"`
	NameHe      string  `json:"name_he"`
	NameEn      string  `json:"name_en"`
	Price       float64 `json:"price"`
	HasToppings bool    `json:"has_toppings"`
	MaxToppings int     `json:"max_toppings"`
	Stock       *int    `json:"stock"`
	IsHidden    bool    `json:"is_hidden"`
	Toppings    []int64 `json:"toppings"`
}

// UpdateItemRequest carries a partial item edit. Stock stays a raw
// message because "absent", "null" (clear the ceiling) and a number are
// three different instructions.
type UpdateItemRequest struct {
	Price       *float64        `json:"price"`
	NameHe      *string         `json:"name_he"`
	NameEn      *string         `json:"name_en"`
	HasToppings *bool           `json:"has_toppings"`
	MaxToppings *int            `json:"max_toppings"`
	Stock       json.RawMessage `json:"stock"`
	IsHidden    *bool           `json:"is_hidden"`
	Toppings    []int64         `json:"toppings"`
}

type CreateToppingRequest struct {
	NameHe string  `json:"name_he"`
	NameEn string  `json:"name_en"`
	Price  float64 `json:"price"`
}

// ItemUpdate is the resolved form of UpdateItemRequest handed to the
// store. StockSet distinguishes "leave stock alone" from "write Stock"
// (which may be nil). A nil Toppings slice leaves the links untouched.
type ItemUpdate struct {
	Price       *float64
	NameHe      *string
	NameEn      *string
	HasToppings *bool
	MaxToppings *int
	Stock       *int
	StockSet    bool
	IsHidden    *bool
	Toppings    []int64
}
