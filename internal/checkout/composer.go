package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/stripe"
	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v80"
)

// PaymentProvider is the subset of Stripe the composer needs.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, params *stripego.CustomerParams) (*stripego.Customer, error)
	FindOrCreatePrice(ctx context.Context, spec stripe.PriceSpec) (stripe.PriceLookup, error)
	CreateCheckoutSession(ctx context.Context, params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
}

// InventoryFetcher reads a fresh inventory snapshot from the given origin.
type InventoryFetcher interface {
	Fetch(ctx context.Context, origin string) (*inventory.Snapshot, error)
}

// Composer validates purchase requests and turns them into hosted Stripe
// checkout sessions. It writes nothing locally: orders are recorded by the
// payment webhook once the buyer has actually paid.
type Composer struct {
	payments  PaymentProvider
	inventory InventoryFetcher
	listings  ListingStore

	newIdempotencyKey func() string
}

func NewComposer(payments PaymentProvider, inv InventoryFetcher, listings ListingStore) *Composer {
	return &Composer{
		payments:          payments,
		inventory:         inv,
		listings:          listings,
		newIdempotencyKey: func() string { return uuid.New().String() },
	}
}

// Input is one checkout attempt.
type Input struct {
	Request *Request
	// Origin is this service's public base URL. Inventory is fetched from it
	// and the Stripe redirect URLs point back to it.
	Origin string
	// UserID is the authenticated buyer, empty for guests.
	UserID string
}

// Session is the created hosted checkout.
type Session struct {
	ID   string
	URL  string
	Mode Mode
}

// CreateCheckoutSession validates in and creates a checkout session. Failures
// are always *Error values.
func (c *Composer) CreateCheckoutSession(ctx context.Context, in Input) (*Session, error) {
	req := in.Request
	if req == nil {
		return nil, newError(http.StatusBadRequest, CodeInvalidJSON, "Request body is required")
	}

	if err := validateShippingAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	mode := req.Mode()
	var (
		draft *sessionDraft
		err   error
	)
	switch mode {
	case ModeCart:
		draft, err = c.composeCart(ctx, in)
	case ModeMarketplace:
		draft, err = c.composeMarketplace(ctx, in)
	default:
		draft, err = c.composeSingle(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	session, err := c.submit(ctx, in, draft)
	if err != nil {
		return nil, err
	}
	session.Mode = mode
	return session, nil
}

// sessionDraft is everything mode-specific about a session.
type sessionDraft struct {
	lineItems    []*stripego.CheckoutSessionLineItemParams
	metadata     map[string]string
	automaticTax bool
	cancelPath   string
}

func (c *Composer) submit(ctx context.Context, in Input, draft *sessionDraft) (*Session, error) {
	addr := in.Request.ShippingAddress
	origin := strings.TrimRight(in.Origin, "/")

	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		LineItems:  draft.lineItems,
		SuccessURL: stripego.String(origin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripego.String(origin + draft.cancelPath),

		ShippingOptions: []*stripego.CheckoutSessionShippingOptionParams{
			ShippingOptionForCountry(addr.Country).params(),
		},
		ShippingAddressCollection: &stripego.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: allowedCountryParams(),
		},
		PhoneNumberCollection: &stripego.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripego.Bool(true),
		},
		ConsentCollection: &stripego.CheckoutSessionConsentCollectionParams{
			Promotions:     stripego.String("auto"),
			TermsOfService: stripego.String("required"),
		},
		AutomaticTax: &stripego.CheckoutSessionAutomaticTaxParams{
			Enabled: stripego.Bool(draft.automaticTax),
		},
	}

	metadata := draft.metadata
	if in.UserID != "" {
		metadata["user_id"] = in.UserID
	}
	metadata["shipping_country"] = strings.ToUpper(addr.Country)
	params.Metadata = metadata

	if customerID := c.ensureCustomer(ctx, addr); customerID != "" {
		params.Customer = stripego.String(customerID)
		params.CustomerUpdate = &stripego.CheckoutSessionCustomerUpdateParams{
			Address:  stripego.String("auto"),
			Shipping: stripego.String("auto"),
		}
	} else {
		params.CustomerEmail = stripego.String(addr.Email)
	}

	params.SetIdempotencyKey(c.newIdempotencyKey())

	session, err := c.payments.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return &Session{ID: session.ID, URL: session.URL}, nil
}

// ensureCustomer creates a Stripe customer for the buyer. It is best-effort:
// checkout proceeds with a plain customer email when it fails.
func (c *Composer) ensureCustomer(ctx context.Context, addr *ShippingAddress) string {
	params := &stripego.CustomerParams{
		Email: stripego.String(addr.Email),
		Name:  stripego.String(addr.Name),
		Address: &stripego.AddressParams{
			Line1:      stripego.String(addr.Line1),
			Line2:      stripego.String(addr.Line2),
			City:       stripego.String(addr.City),
			State:      stripego.String(addr.State),
			PostalCode: stripego.String(addr.PostalCode),
			Country:    stripego.String(strings.ToUpper(addr.Country)),
		},
		Shipping: &stripego.CustomerShippingParams{
			Name: stripego.String(addr.Name),
			Address: &stripego.AddressParams{
				Line1:      stripego.String(addr.Line1),
				Line2:      stripego.String(addr.Line2),
				City:       stripego.String(addr.City),
				State:      stripego.String(addr.State),
				PostalCode: stripego.String(addr.PostalCode),
				Country:    stripego.String(strings.ToUpper(addr.Country)),
			},
		},
	}

	cust, err := c.payments.CreateCustomer(ctx, params)
	if err != nil {
		slog.Warn("failed to create stripe customer, continuing without one", "error", err, "email", addr.Email)
		return ""
	}
	return cust.ID
}

func (c *Composer) findOrCreatePrice(ctx context.Context, spec stripe.PriceSpec) (string, error) {
	lookup, err := c.payments.FindOrCreatePrice(ctx, spec)
	if err != nil {
		slog.Error("failed to find or create price", "error", err, "lookup_key", spec.LookupKey)
		return "", wrapError(http.StatusInternalServerError, CodePriceCreationFailed,
			"Failed to prepare product pricing", err)
	}
	slog.Debug("resolved price", "lookup_key", spec.LookupKey, "price_id", lookup.Price.ID, "outcome", lookup.Outcome)
	return lookup.Price.ID, nil
}

func (c *Composer) fetchInventory(ctx context.Context, origin string) (*inventory.Snapshot, error) {
	snap, err := c.inventory.Fetch(ctx, origin)
	if err != nil {
		slog.Error("inventory check failed", "error", err, "origin", origin)
		return nil, wrapError(http.StatusServiceUnavailable, CodeInventoryCheckFailed,
			"Unable to verify inventory, please try again", err)
	}
	return snap, nil
}

func insufficientInventory(productID string, requested, available int64) *Error {
	return newError(http.StatusBadRequest, CodeInsufficientInventory,
		"Not enough inventory to fulfil this order").
		WithDetail("productId", productID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

func classifyProviderError(err error) *Error {
	if msg, ok := stripe.IsStripeError(err); ok {
		slog.Error("stripe rejected checkout session", "error", err)
		return wrapError(http.StatusInternalServerError, CodeStripeError, msg, err)
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("checkout session creation canceled", "error", err)
	} else {
		slog.Error("failed to create checkout session", "error", err)
	}
	return wrapError(http.StatusInternalServerError, CodeCheckoutError, "Failed to create checkout session", err)
}

func adjustableQuantity(maximum int64) *stripego.CheckoutSessionLineItemAdjustableQuantityParams {
	return &stripego.CheckoutSessionLineItemAdjustableQuantityParams{
		Enabled: stripego.Bool(true),
		Minimum: stripego.Int64(MinQuantity),
		Maximum: stripego.Int64(min(MaxQuantity, maximum)),
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}

// imageURLs keeps only absolute http(s) urls, which is all Stripe accepts.
func imageURLs(raw string) []*string {
	if strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://") {
		return []*string{stripego.String(raw)}
	}
	return nil
}
