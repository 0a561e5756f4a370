package sale

import "time"

const (
	EventSaleRecorded      = "SaleRecorded"
	EventSaleStatusChanged = "SaleStatusChanged"
)

type SaleRecorded struct {
	SaleID      string    `json:"sale_id"`
	SellerID    string    `json:"seller_id"`
	BuyerID     string    `json:"buyer_id"`
	BuyerName   string    `json:"buyer_name"`
	BuyerEmail  string    `json:"buyer_email"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Total       float64   `json:"total"`
	Status      Status    `json:"status"`
	OfferID     string    `json:"offer_id,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type SaleStatusChanged struct {
	SaleID    string    `json:"sale_id"`
	SellerID  string    `json:"seller_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}
