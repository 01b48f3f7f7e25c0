package checkout

import (
	"net/http"
	"strings"
)

// ValidateShippingAddress checks that every required address field is present
// and returns the names of the missing ones. line2 is optional.
func ValidateShippingAddress(addr *ShippingAddress) []string {
	if addr == nil {
		return []string{"email", "name", "line1", "city", "state", "postal_code", "country"}
	}

	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"email", addr.Email},
		{"name", addr.Name},
		{"line1", addr.Line1},
		{"city", addr.City},
		{"state", addr.State},
		{"postal_code", addr.PostalCode},
		{"country", addr.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func validateShippingAddress(addr *ShippingAddress) error {
	if missing := ValidateShippingAddress(addr); len(missing) > 0 {
		return newError(http.StatusBadRequest, CodeInvalidShippingAddress,
			"Shipping address is incomplete").
			WithDetail("missing", missing)
	}
	if !IsAllowedCountry(addr.Country) {
		return newError(http.StatusBadRequest, CodeInvalidShippingAddress,
			"We do not ship to this country").
			WithDetail("country", addr.Country)
	}
	return nil
}
