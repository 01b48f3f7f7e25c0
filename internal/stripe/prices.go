package stripe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v80"
)

// PriceOutcome tells whether a price was reused or newly created.
type PriceOutcome int

const (
	PriceFound PriceOutcome = iota + 1
	PriceCreated
)

func (o PriceOutcome) String() string {
	switch o {
	case PriceFound:
		return "found"
	case PriceCreated:
		return "created"
	default:
		return "unknown"
	}
}

// PriceSpec describes a reusable price. LookupKey identifies it across
// requests so the same product/amount pair is only created once.
type PriceSpec struct {
	LookupKey   string
	ProductName string
	UnitAmount  int64
	Currency    string
	Metadata    map[string]string
}

// PriceLookup is the result of FindOrCreatePrice.
type PriceLookup struct {
	Price   *stripe.Price
	Outcome PriceOutcome
}

// FindOrCreatePrice returns the active price registered under spec.LookupKey,
// creating it when none exists. There is no local cache; Stripe's lookup key
// index is the source of truth.
func (s *StripeService) FindOrCreatePrice(ctx context.Context, spec PriceSpec) (PriceLookup, error) {
	if spec.LookupKey == "" {
		return PriceLookup{}, fmt.Errorf("price lookup key is required")
	}

	listParams := &stripe.PriceListParams{
		Active:     stripe.Bool(true),
		LookupKeys: []*string{stripe.String(spec.LookupKey)},
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := s.sc.Prices.List(listParams)
	if iter.Next() {
		p := iter.Price()
		if p.UnitAmount == spec.UnitAmount {
			return PriceLookup{Price: p, Outcome: PriceFound}, nil
		}
		slog.Warn("price under lookup key has a different amount, replacing",
			"lookup_key", spec.LookupKey,
			"existing_amount", p.UnitAmount,
			"wanted_amount", spec.UnitAmount)
	}
	if err := iter.Err(); err != nil {
		return PriceLookup{}, fmt.Errorf("error listing prices: %w", err)
	}

	currency := spec.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PriceParams{
		Currency:          stripe.String(currency),
		UnitAmount:        stripe.Int64(spec.UnitAmount),
		LookupKey:         stripe.String(spec.LookupKey),
		TransferLookupKey: stripe.Bool(true),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(spec.ProductName),
		},
	}
	params.Context = ctx
	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}

	p, err := s.sc.Prices.New(params)
	if err != nil {
		return PriceLookup{}, fmt.Errorf("error creating price: %w", err)
	}

	slog.Info("created stripe price", "price_id", p.ID, "lookup_key", spec.LookupKey, "unit_amount", p.UnitAmount)
	return PriceLookup{Price: p, Outcome: PriceCreated}, nil
}
