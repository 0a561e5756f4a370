package cart

import "time"

const (
	EventItemAdded   = "ItemAddedToCart"
	EventItemRemoved = "ItemRemovedFromCart"
	EventCartCleared = "CartCleared"
)

type ItemAddedToCart struct {
	ProductID string    `json:"product_id"`
	Price     float64   `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

type ItemRemovedFromCart struct {
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	Items     int       `json:"items"`
	ClearedAt time.Time `json:"cleared_at"`
}
