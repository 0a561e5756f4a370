package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID        string         `json:"order_id"`
	UserID         string         `json:"user_id"`
	ProductID      string         `json:"product_id"`
	ProductName    string         `json:"product_name"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	Total          float64        `json:"total"`
	Email          string         `json:"email"`
	FullName       string         `json:"full_name"`
	PlacedAt       time.Time      `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}
