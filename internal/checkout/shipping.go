package checkout

import (
	"slices"
	"strings"

	stripego "github.com/stripe/stripe-go/v80"
)

// AllowedCountries restricts the address Stripe will collect. Anything outside
// the US and Canada ships at the international rate.
var AllowedCountries = []string{
	"US", "CA", "GB", "IE", "AU", "NZ",
	"DE", "FR", "NL", "BE", "LU", "AT", "CH",
	"ES", "PT", "IT", "DK", "SE", "NO", "FI",
	"PL", "CZ", "JP", "SG", "HK", "KR",
}

// ShippingOption is a flat shipping rate offered at checkout.
type ShippingOption struct {
	DisplayName     string
	AmountCents     int64
	MinBusinessDays int64
	MaxBusinessDays int64
}

var (
	shippingDomestic = ShippingOption{
		DisplayName:     "Standard Shipping (US)",
		AmountCents:     499,
		MinBusinessDays: 5,
		MaxBusinessDays: 7,
	}
	shippingCanada = ShippingOption{
		DisplayName:     "Standard Shipping (Canada)",
		AmountCents:     1199,
		MinBusinessDays: 7,
		MaxBusinessDays: 14,
	}
	shippingInternational = ShippingOption{
		DisplayName:     "International Shipping",
		AmountCents:     1699,
		MinBusinessDays: 10,
		MaxBusinessDays: 21,
	}
)

// ShippingOptionForCountry picks the single shipping rate for a destination.
// Buyers never choose between rates.
func ShippingOptionForCountry(country string) ShippingOption {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US":
		return shippingDomestic
	case "CA":
		return shippingCanada
	default:
		return shippingInternational
	}
}

// IsAllowedCountry reports whether Stripe will accept the country for delivery.
func IsAllowedCountry(country string) bool {
	return slices.Contains(AllowedCountries, strings.ToUpper(strings.TrimSpace(country)))
}

func (o ShippingOption) params() *stripego.CheckoutSessionShippingOptionParams {
	return &stripego.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripego.CheckoutSessionShippingOptionShippingRateDataParams{
			DisplayName: stripego.String(o.DisplayName),
			Type:        stripego.String("fixed_amount"),
			FixedAmount: &stripego.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripego.Int64(o.AmountCents),
				Currency: stripego.String(currencyUSD),
			},
			DeliveryEstimate: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripego.String("business_day"),
					Value: stripego.Int64(o.MinBusinessDays),
				},
				Maximum: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripego.String("business_day"),
					Value: stripego.Int64(o.MaxBusinessDays),
				},
			},
		},
	}
}

func allowedCountryParams() []*string {
	out := make([]*string, 0, len(AllowedCountries))
	for _, c := range AllowedCountries {
		out = append(out, stripego.String(c))
	}
	return out
}
