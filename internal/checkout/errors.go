package checkout

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes returned to the storefront. The frontend branches on
// these, so they must not change.
const (
	CodeMethodNotAllowed       = "METHOD_NOT_ALLOWED"
	CodeCSRFInvalid            = "CSRF_INVALID"
	CodeInvalidJSON            = "INVALID_JSON"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInvalidShippingAddress = "INVALID_SHIPPING_ADDRESS"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInventoryCheckFailed   = "INVENTORY_CHECK_FAILED"
	CodeInsufficientInventory  = "INSUFFICIENT_INVENTORY"
	CodeInvalidCartItems       = "INVALID_CART_ITEMS"
	CodeListingNotFound        = "LISTING_NOT_FOUND"
	CodeListingLookupFailed    = "LISTING_LOOKUP_FAILED"
	CodePriceCreationFailed    = "PRICE_CREATION_FAILED"
	CodeStripeError            = "STRIPE_ERROR"
	CodeCheckoutError          = "CHECKOUT_ERROR"
)

// Error is a checkout failure with an HTTP status and a machine-readable code.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key/value pair that is echoed back in the response body.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func wrapError(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

// AsError extracts a *Error from err. Anything that is not already a checkout
// error is reported as a generic 500.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return wrapError(http.StatusInternalServerError, CodeCheckoutError, "Failed to create checkout session", err)
}
