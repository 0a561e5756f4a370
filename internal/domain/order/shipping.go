package order

import (
	"errors"

	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingSameDay  ShippingMethod = "sameDay"
)

var ErrUnknownShipping = errors.New("unknown shipping method")

var shippingPrices = map[ShippingMethod]float64{
	ShippingStandard: 15,
	ShippingExpress:  35,
	ShippingSameDay:  60,
}

// ShippingCost returns the flat delivery price for a method
func ShippingCost(m ShippingMethod) (float64, error) {
	cost, ok := shippingPrices[m]
	if !ok {
		return 0, ErrUnknownShipping
	}
	return cost, nil
}

// AddPrices sums amounts in decimal so totals do not pick up float error
func AddPrices(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}
