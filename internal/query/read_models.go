package query

import (
	"github.com/shopspring/decimal"

	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/comment"
	"github.com/example/furniture-market/internal/domain/listing"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
	"github.com/example/furniture-market/internal/domain/user"
)

// Dashboard is everything the signed-in user's account page shows
type Dashboard struct {
	User           user.User
	Listings       []listing.Listing
	OffersReceived []offer.Offer
	OffersSent     []offer.Offer
	Orders         []order.Order
	Sales          []sale.Sale

	// Revenue sums the totals of real sales; the demo record is excluded
	Revenue decimal.Decimal
}

// ProductDetail is a product page: the product, its comments and whether
// it is already in the cart
type ProductDetail struct {
	Product  catalog.Product
	Comments []comment.Comment
	InCart   bool

	// ListingID is set when the product is a user listing
	ListingID string
}
