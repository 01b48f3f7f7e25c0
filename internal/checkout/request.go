package checkout

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Product ids understood by the cart.
const (
	ProductLimitedEditionCard = "limited-edition-card"
	ProductCustomCard         = "custom-card"
	ProductDisplayCase        = "display-case"
)

// Mode is the purchase flow a request resolves to.
type Mode string

const (
	ModeSingle      Mode = "single"
	ModeCart        Mode = "cart"
	ModeMarketplace Mode = "marketplace"
)

// Request is the JSON body of POST /api/create-checkout-session.
//
// Quantities are kept as raw JSON values because the storefront sends both
// numbers and numeric strings.
type Request struct {
	Quantity        any              `json:"quantity"`
	ShippingAddress *ShippingAddress `json:"shippingAddress"`

	IsCartCheckout bool       `json:"isCartCheckout"`
	CartItems      []CartItem `json:"cartItems"`

	IsMarketplace bool   `json:"isMarketplace"`
	ListingID     string `json:"listingId"`

	IsCustomCard   bool   `json:"isCustomCard"`
	CustomImageURL string `json:"customImageUrl"`
	CardFinish     string `json:"cardFinish"`

	IncludeDisplayCase  bool `json:"includeDisplayCase"`
	DisplayCaseQuantity any  `json:"displayCaseQuantity"`
}

// ShippingAddress is the buyer's destination, collected before checkout.
type ShippingAddress struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CartItem is one heterogeneous entry of a cart checkout.
type CartItem struct {
	ProductID      string `json:"productId"`
	Quantity       any    `json:"quantity"`
	Name           string `json:"name,omitempty"`
	CardFinish     string `json:"cardFinish,omitempty"`
	CustomImageURL string `json:"customImageUrl,omitempty"`
}

// Mode resolves the purchase flow. Cart wins over marketplace, which wins
// over the single-product default.
func (r *Request) Mode() Mode {
	switch {
	case r.IsCartCheckout && len(r.CartItems) > 0:
		return ModeCart
	case r.IsMarketplace && r.ListingID != "":
		return ModeMarketplace
	default:
		return ModeSingle
	}
}

// ParseQuantity converts a decoded JSON value into a whole-number quantity.
// Numbers must be integral; strings must hold a base-10 integer.
func ParseQuantity(v any) (int64, bool) {
	switch q := v.(type) {
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) {
			return 0, false
		}
		return int64(q), true
	case int:
		return int64(q), true
	case int64:
		return q, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(q), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ValidQuantity parses v and checks it is within [MinQuantity, MaxQuantity].
func ValidQuantity(v any) (int64, bool) {
	n, ok := ParseQuantity(v)
	if !ok || n < MinQuantity || n > MaxQuantity {
		return 0, false
	}
	return n, true
}

func parseQuantityField(field string, v any) (int64, error) {
	n, ok := ValidQuantity(v)
	if !ok {
		return 0, newError(http.StatusBadRequest, CodeInvalidQuantity,
			"Quantity must be a whole number between 1 and 100").
			WithDetail("field", field)
	}
	return n, nil
}

// displayCaseQuantity defaults to one case when the flag is set but no
// quantity was sent.
func displayCaseQuantity(v any) (int64, error) {
	if v == nil {
		return 1, nil
	}
	return parseQuantityField("displayCaseQuantity", v)
}
