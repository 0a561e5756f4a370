package command

import (
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
)

// Offer Commands
type MakeOffer struct {
	ProductID string     `json:"product_id"`
	Type      offer.Type `json:"type"`
	Item      string     `json:"item,omitempty"`
	ItemImage string     `json:"item_image,omitempty"`
	Amount    float64    `json:"amount,omitempty"`
}

type AcceptOffer struct {
	OfferID string `json:"offer_id"`
}

type DeclineOffer struct {
	OfferID string `json:"offer_id"`
}

type CounterOffer struct {
	OfferID string  `json:"offer_id"`
	Amount  float64 `json:"amount"`
}

// Checkout Commands
type Checkout struct {
	ProductID      string               `json:"product_id"`
	ShippingMethod order.ShippingMethod `json:"shipping_method"`
	Address        order.Address        `json:"address"`
}

type CheckoutCart struct {
	ShippingMethod order.ShippingMethod `json:"shipping_method"`
	Address        order.Address        `json:"address"`
}
