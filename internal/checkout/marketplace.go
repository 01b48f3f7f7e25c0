package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	stripego "github.com/stripe/stripe-go/v80"
)

// ListingStatusActive is the only listing status that can be purchased.
const ListingStatusActive = "active"

var ErrListingNotFound = errors.New("listing not found")

// Listing is a marketplace offer joined with the asset it sells and, when
// the asset belongs to one, its series.
type Listing struct {
	ID         string
	SellerID   string
	AssetID    string
	PriceCents int64
	Status     string

	AssetTitle    string
	AssetImageURL string

	Series *Series
}

// Series bounds how many prints of an asset can still be sold.
type Series struct {
	ID              string
	Name            string
	TotalSupply     int64
	RemainingSupply int64
}

// ListingStore loads active marketplace listings.
type ListingStore interface {
	// GetActiveListing returns ErrListingNotFound when the listing does not
	// exist or is not active.
	GetActiveListing(ctx context.Context, listingID string) (*Listing, error)
}

// MarketplaceQuote is the priced outcome of a marketplace purchase.
type MarketplaceQuote struct {
	BaseUnitCents   int64
	DiscountPercent int64
	UnitPriceCents  int64
	TotalPriceCents int64
}

// QuoteMarketplace prices quantity prints of a listing with the given finish.
func QuoteMarketplace(listingPriceCents int64, finish string, quantity int64) MarketplaceQuote {
	base := listingPriceCents + FinishSurcharge(finish)
	unit := DiscountedUnitPrice(base, quantity)
	return MarketplaceQuote{
		BaseUnitCents:   base,
		DiscountPercent: MarketplaceDiscountPercent(quantity),
		UnitPriceCents:  unit,
		TotalPriceCents: unit * quantity,
	}
}

func (c *Composer) composeMarketplace(ctx context.Context, in Input) (*sessionDraft, error) {
	req := in.Request

	quantity, err := parseQuantityField("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}

	var caseQuantity int64
	if req.IncludeDisplayCase {
		caseQuantity, err = displayCaseQuantity(req.DisplayCaseQuantity)
		if err != nil {
			return nil, err
		}
	}

	listing, err := c.listings.GetActiveListing(ctx, req.ListingID)
	if errors.Is(err, ErrListingNotFound) || (err == nil && listing.Status != ListingStatusActive) {
		return nil, newError(http.StatusNotFound, CodeListingNotFound,
			"Listing not found or no longer available").
			WithDetail("listingId", req.ListingID)
	}
	if err != nil {
		slog.Error("failed to load marketplace listing", "error", err, "listing_id", req.ListingID)
		return nil, wrapError(http.StatusInternalServerError, CodeListingLookupFailed,
			"Failed to load listing", err)
	}

	maxQuantity := MaxQuantity
	if listing.Series != nil {
		if quantity > listing.Series.RemainingSupply {
			return nil, insufficientInventory(listing.AssetID, quantity, listing.Series.RemainingSupply)
		}
		maxQuantity = listing.Series.RemainingSupply
	}

	finish := NormalizeFinish(req.CardFinish)
	quote := QuoteMarketplace(listing.PriceCents, finish, quantity)

	title := listing.AssetTitle
	if title == "" {
		title = "Marketplace Card"
	}
	description := fmt.Sprintf("%s finish", FinishLabel(finish))
	if quote.DiscountPercent > 0 {
		description = fmt.Sprintf("%s, %d%% bulk discount", description, quote.DiscountPercent)
	}

	lineItems := []*stripego.CheckoutSessionLineItemParams{
		{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripego.String(currencyUSD),
				UnitAmount: stripego.Int64(quote.UnitPriceCents),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripego.String(title),
					Description: stripego.String(description),
					Images:      imageURLs(listing.AssetImageURL),
					Metadata: map[string]string{
						"listing_id": listing.ID,
						"asset_id":   listing.AssetID,
					},
				},
			},
			Quantity:           stripego.Int64(quantity),
			AdjustableQuantity: adjustableQuantity(maxQuantity),
		},
	}

	if req.IncludeDisplayCase {
		lineItems = append(lineItems, &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripego.String(currencyUSD),
				UnitAmount: stripego.Int64(MarketplaceDisplayCaseCents),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String("Card Display Case"),
				},
			},
			Quantity: stripego.Int64(caseQuantity),
		})
	}

	return &sessionDraft{
		lineItems: lineItems,
		metadata: map[string]string{
			"purchase_type":         string(ModeMarketplace),
			"listing_id":            listing.ID,
			"seller_id":             listing.SellerID,
			"asset_id":              listing.AssetID,
			"quantity":              itoa(quantity),
			"discount_percent":      itoa(quote.DiscountPercent),
			"unit_price_cents":      itoa(quote.UnitPriceCents),
			"total_price_cents":     itoa(quote.TotalPriceCents),
			"card_finish":           finish,
			"include_display_case":  boolString(req.IncludeDisplayCase),
			"display_case_quantity": itoa(caseQuantity),
		},
		// Marketplace sessions do not collect tax automatically.
		automaticTax: false,
		cancelPath:   "/marketplace/" + listing.ID,
	}, nil
}
