package checkout

import "strings"

// Card finishes offered at print time.
const (
	FinishMatte   = "matte"
	FinishGloss   = "gloss"
	FinishRainbow = "rainbow"
)

const (
	MinQuantity int64 = 1
	MaxQuantity int64 = 100

	// PremiumFinishSurchargeCents is added per card for gloss and rainbow.
	PremiumFinishSurchargeCents int64 = 400

	// MarketplaceDisplayCaseCents is the flat display case price on
	// marketplace orders.
	MarketplaceDisplayCaseCents int64 = 1900

	currencyUSD = "usd"
)

// NormalizeFinish lowercases the finish and falls back to matte.
func NormalizeFinish(finish string) string {
	f := strings.ToLower(strings.TrimSpace(finish))
	switch f {
	case FinishGloss, FinishRainbow:
		return f
	default:
		return FinishMatte
	}
}

// FinishSurcharge returns the per-card surcharge in cents for a finish.
func FinishSurcharge(finish string) int64 {
	switch NormalizeFinish(finish) {
	case FinishGloss, FinishRainbow:
		return PremiumFinishSurchargeCents
	default:
		return 0
	}
}

// FinishLabel is the buyer-facing name of a finish.
func FinishLabel(finish string) string {
	switch NormalizeFinish(finish) {
	case FinishRainbow:
		return "Rainbow Foil"
	case FinishGloss:
		return "Gloss"
	default:
		return "Matte"
	}
}

// MarketplaceDiscountPercent is the bulk discount ladder for marketplace
// listings.
func MarketplaceDiscountPercent(quantity int64) int64 {
	switch {
	case quantity >= 10:
		return 50
	case quantity >= 5:
		return 35
	case quantity >= 2:
		return 25
	default:
		return 0
	}
}

// DiscountedUnitPrice applies the marketplace ladder to a per-unit base price
// and floors the result to whole cents.
func DiscountedUnitPrice(baseCents, quantity int64) int64 {
	pct := MarketplaceDiscountPercent(quantity)
	return baseCents * (100 - pct) / 100
}
