package sale

import (
	"time"

	"github.com/example/furniture-market/internal/domain/user"
)

const demoSaleID = "sample-sale-1"

// demoSale is the sample record shown to sellers without sales. It is never
// persisted.
func (s *Service) demoSale(sellerID string) Sale {
	return Sale{
		ID:             demoSaleID,
		SellerID:       sellerID,
		BuyerID:        "buyer-1",
		BuyerName:      "Anar M.",
		BuyerEmail:     "anar.m@example.com",
		ProductID:      "1",
		ProductName:    "Mid-Century Modern Sofa",
		ProductImage:   "https://images.unsplash.com/photo-1555041469-a586c61ea9bc?w=800",
		ProductPrice:   850,
		ShippingMethod: "standard",
		ShippingPrice:  25,
		Total:          875,
		BuyerAddress: user.Address{
			Street:         "28 May Street, 45",
			City:           "Baku",
			AddressDetails: "Apartment 12",
			ZipCode:        "AZ1000",
		},
		Status:    StatusConfirmed,
		Demo:      true,
		CreatedAt: s.now().Add(-2 * 24 * time.Hour),
	}
}
