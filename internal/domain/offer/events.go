package offer

import "time"

const (
	EventOfferMade      = "OfferMade"
	EventOfferAccepted  = "OfferAccepted"
	EventOfferDeclined  = "OfferDeclined"
	EventOfferCountered = "OfferCountered"
)

type OfferMade struct {
	OfferID   string    `json:"offer_id"`
	FromID    string    `json:"from_id"`
	SellerID  string    `json:"seller_id"`
	Type      Type      `json:"type"`
	Amount    float64   `json:"amount,omitempty"`
	Item      string    `json:"item,omitempty"`
	ForItemID string    `json:"for_item_id"`
	MadeAt    time.Time `json:"made_at"`
}

// OfferResolved is the payload of the accept, decline and counter events
type OfferResolved struct {
	OfferID       string    `json:"offer_id"`
	FromID        string    `json:"from_id"`
	SellerID      string    `json:"seller_id"`
	ForItem       string    `json:"for_item"`
	Status        Status    `json:"status"`
	CounterAmount float64   `json:"counter_amount,omitempty"`
	ResolvedAt    time.Time `json:"resolved_at"`
}
