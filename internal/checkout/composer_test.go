package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v80"
)

type fakePayments struct {
	customerErr error
	priceErr    error
	sessionErr  error

	customers []*stripego.CustomerParams
	prices    []stripe.PriceSpec
	sessions  []*stripego.CheckoutSessionParams
}

func (f *fakePayments) CreateCustomer(_ context.Context, params *stripego.CustomerParams) (*stripego.Customer, error) {
	f.customers = append(f.customers, params)
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &stripego.Customer{ID: "cus_test"}, nil
}

func (f *fakePayments) FindOrCreatePrice(_ context.Context, spec stripe.PriceSpec) (stripe.PriceLookup, error) {
	f.prices = append(f.prices, spec)
	if f.priceErr != nil {
		return stripe.PriceLookup{}, f.priceErr
	}
	return stripe.PriceLookup{
		Price:   &stripego.Price{ID: "price_" + spec.LookupKey, UnitAmount: spec.UnitAmount},
		Outcome: stripe.PriceCreated,
	}, nil
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error) {
	f.sessions = append(f.sessions, params)
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &stripego.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

type fakeInventory struct {
	snap    *inventory.Snapshot
	err     error
	origins []string
}

func (f *fakeInventory) Fetch(_ context.Context, origin string) (*inventory.Snapshot, error) {
	f.origins = append(f.origins, origin)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeListings map[string]*Listing

func (f fakeListings) GetActiveListing(_ context.Context, id string) (*Listing, error) {
	l, ok := f[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func testSnapshot() *inventory.Snapshot {
	return &inventory.Snapshot{
		Inventory:    50,
		PricePerUnit: 900,
		Product:      inventory.Product{ID: inventory.ItemLimitedEditionCard, Name: "Limited Edition Card", PriceCents: 900},
		CustomCard:   inventory.Product{ID: inventory.ItemCustomCard, Name: "Custom Card", PriceCents: 1200},
		DisplayCases: inventory.DisplayCaseStock{Inventory: 10, PricePerUnit: 1900, Name: "Display Case"},
	}
}

func fakeAddress(country string) *ShippingAddress {
	return &ShippingAddress{
		Email:      gofakeit.Email(),
		Name:       gofakeit.Name(),
		Line1:      gofakeit.Street(),
		City:       gofakeit.City(),
		State:      gofakeit.State(),
		PostalCode: gofakeit.Zip(),
		Country:    country,
	}
}

type composerFixture struct {
	composer  *Composer
	payments  *fakePayments
	inventory *fakeInventory
	listings  fakeListings
}

func newComposerFixture() *composerFixture {
	f := &composerFixture{
		payments:  &fakePayments{},
		inventory: &fakeInventory{snap: testSnapshot()},
		listings: fakeListings{
			"listing-1": {
				ID:            "listing-1",
				SellerID:      "seller-1",
				AssetID:       "asset-1",
				PriceCents:    1000,
				Status:        ListingStatusActive,
				AssetTitle:    "Dragon Knight",
				AssetImageURL: "https://cdn.example.com/dragon.png",
				Series:        &Series{ID: "series-1", TotalSupply: 100, RemainingSupply: 40},
			},
		},
	}
	f.composer = NewComposer(f.payments, f.inventory, f.listings)
	f.composer.newIdempotencyKey = func() string { return "idem-1" }
	return f
}

func (f *composerFixture) create(t *testing.T, req *Request) (*Session, *Error) {
	t.Helper()
	session, err := f.composer.CreateCheckoutSession(context.Background(), Input{
		Request: req,
		Origin:  "https://cardify.test",
		UserID:  "user-1",
	})
	if err != nil {
		var ce *Error
		require.True(t, errors.As(err, &ce), "expected *checkout.Error, got %T", err)
		return nil, ce
	}
	return session, nil
}

func TestCreateCheckoutSession_SingleStandardCanada(t *testing.T) {
	f := newComposerFixture()

	session, cerr := f.create(t, &Request{
		Quantity:        float64(5),
		ShippingAddress: fakeAddress("CA"),
		IsCustomCard:    false,
	})
	require.Nil(t, cerr)
	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, ModeSingle, session.Mode)

	require.Len(t, f.payments.sessions, 1)
	params := f.payments.sessions[0]

	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(5), *params.LineItems[0].Quantity)
	assert.Equal(t, "price_limited-edition-card_matte_900", *params.LineItems[0].Price)

	require.Len(t, params.ShippingOptions, 1)
	assert.Equal(t, int64(1199), *params.ShippingOptions[0].ShippingRateData.FixedAmount.Amount)

	assert.True(t, *params.AutomaticTax.Enabled)
	assert.True(t, *params.PhoneNumberCollection.Enabled)
	assert.Equal(t, "required", *params.ConsentCollection.TermsOfService)
	assert.Len(t, params.ShippingAddressCollection.AllowedCountries, len(AllowedCountries))
	assert.Equal(t, "cus_test", *params.Customer)
	assert.Equal(t, "idem-1", *params.IdempotencyKey)

	assert.Equal(t, "5", params.Metadata["quantity"])
	assert.Equal(t, "false", params.Metadata["include_display_case"])
	assert.Equal(t, "matte", params.Metadata["card_finish"])
	assert.Equal(t, "user-1", params.Metadata["user_id"])
	assert.Equal(t, "single", params.Metadata["purchase_type"])

	assert.Equal(t, []string{"https://cardify.test"}, f.inventory.origins)
}

func TestCreateCheckoutSession_InvalidQuantity(t *testing.T) {
	for _, q := range []any{float64(0), float64(101), float64(-1), "abc", 1.5, nil} {
		t.Run(fmt.Sprint(q), func(t *testing.T) {
			f := newComposerFixture()

			_, cerr := f.create(t, &Request{Quantity: q, ShippingAddress: fakeAddress("US")})
			require.NotNil(t, cerr)
			assert.Equal(t, CodeInvalidQuantity, cerr.Code)
			assert.Equal(t, http.StatusBadRequest, cerr.Status)
			assert.Empty(t, f.payments.sessions)
			assert.Empty(t, f.inventory.origins)
		})
	}
}

func TestCreateCheckoutSession_InvalidDisplayCaseQuantity(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{
		Quantity:            float64(1),
		ShippingAddress:     fakeAddress("US"),
		IncludeDisplayCase:  true,
		DisplayCaseQuantity: float64(150),
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidQuantity, cerr.Code)
	assert.Equal(t, "displayCaseQuantity", cerr.Details["field"])
}

func TestCreateCheckoutSession_ShippingAddressCheckedFirst(t *testing.T) {
	f := newComposerFixture()
	addr := fakeAddress("US")
	addr.PostalCode = ""

	// Quantity and cart contents are also invalid; the address error wins.
	_, cerr := f.create(t, &Request{
		Quantity:        float64(500),
		ShippingAddress: addr,
		IsCartCheckout:  true,
		CartItems:       []CartItem{{ProductID: "mystery"}},
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidShippingAddress, cerr.Code)
	assert.Equal(t, []string{"postal_code"}, cerr.Details["missing"])
	assert.Empty(t, f.inventory.origins)
	assert.Empty(t, f.payments.prices)
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_UnsupportedCountry(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: fakeAddress("BR")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidShippingAddress, cerr.Code)
	assert.Equal(t, "BR", cerr.Details["country"])
	assert.Empty(t, f.inventory.origins)
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_MissingShippingAddress(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{Quantity: float64(1)})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidShippingAddress, cerr.Code)
}

func TestCreateCheckoutSession_InventoryFetchFails(t *testing.T) {
	f := newComposerFixture()
	f.inventory.err = errors.New("connection refused")

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: fakeAddress("US")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInventoryCheckFailed, cerr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, cerr.Status)
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_InsufficientInventory(t *testing.T) {
	f := newComposerFixture()
	f.inventory.snap.Inventory = 3

	_, cerr := f.create(t, &Request{Quantity: float64(4), ShippingAddress: fakeAddress("US")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInsufficientInventory, cerr.Code)
	assert.Equal(t, int64(3), cerr.Details["available"])
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_CustomCardSkipsInventory(t *testing.T) {
	f := newComposerFixture()
	f.inventory.snap.Inventory = 0

	_, cerr := f.create(t, &Request{
		Quantity:        float64(20),
		ShippingAddress: fakeAddress("DE"),
		IsCustomCard:    true,
		CardFinish:      "gloss",
		CustomImageURL:  "https://cdn.example.com/art.png",
	})
	require.Nil(t, cerr)

	params := f.payments.sessions[0]
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Nil(t, item.Price)
	assert.Equal(t, int64(1600), *item.PriceData.UnitAmount)
	assert.Contains(t, *item.PriceData.ProductData.Description, "Gloss")
	assert.Equal(t, "https://cdn.example.com/art.png", *item.PriceData.ProductData.Images[0])
	assert.Equal(t, int64(1699), *params.ShippingOptions[0].ShippingRateData.FixedAmount.Amount)
	assert.Equal(t, "https://cdn.example.com/art.png", params.Metadata["custom_image_url"])
	assert.Empty(t, f.payments.prices, "custom cards are priced inline")
}

func TestCreateCheckoutSession_DisplayCaseInventory(t *testing.T) {
	f := newComposerFixture()
	f.inventory.snap.DisplayCases.Inventory = 1

	_, cerr := f.create(t, &Request{
		Quantity:            float64(1),
		ShippingAddress:     fakeAddress("US"),
		IncludeDisplayCase:  true,
		DisplayCaseQuantity: "2",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInsufficientInventory, cerr.Code)
	assert.Equal(t, ProductDisplayCase, cerr.Details["productId"])
}

func TestCreateCheckoutSession_SingleWithDisplayCaseAndFinish(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{
		Quantity:           "2",
		ShippingAddress:    fakeAddress("US"),
		CardFinish:         "rainbow",
		IncludeDisplayCase: true,
	})
	require.Nil(t, cerr)

	require.Len(t, f.payments.prices, 2)
	assert.Equal(t, int64(1300), f.payments.prices[0].UnitAmount)
	assert.Equal(t, "limited-edition-card_rainbow_1300", f.payments.prices[0].LookupKey)
	assert.Equal(t, "display-case_1900", f.payments.prices[1].LookupKey)

	params := f.payments.sessions[0]
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(1), *params.LineItems[1].Quantity)
	assert.Equal(t, "true", params.Metadata["include_display_case"])
	assert.Equal(t, "1", params.Metadata["display_case_quantity"])
}

func TestCreateCheckoutSession_PriceCreationFails(t *testing.T) {
	f := newComposerFixture()
	f.payments.priceErr = errors.New("stripe down")

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: fakeAddress("US")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodePriceCreationFailed, cerr.Code)
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_CustomerFailureIsNotFatal(t *testing.T) {
	f := newComposerFixture()
	f.payments.customerErr = errors.New("rate limited")
	addr := fakeAddress("US")

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: addr})
	require.Nil(t, cerr)

	params := f.payments.sessions[0]
	assert.Nil(t, params.Customer)
	assert.Equal(t, addr.Email, *params.CustomerEmail)
}

func TestCreateCheckoutSession_StripeErrorClassified(t *testing.T) {
	f := newComposerFixture()
	f.payments.sessionErr = &stripego.Error{Msg: "Invalid currency", Type: stripego.ErrorTypeInvalidRequest}

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: fakeAddress("US")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeStripeError, cerr.Code)
	assert.Equal(t, "Invalid currency", cerr.Message)
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
}

func TestCreateCheckoutSession_GenericErrorClassified(t *testing.T) {
	f := newComposerFixture()
	f.payments.sessionErr = errors.New("boom")

	_, cerr := f.create(t, &Request{Quantity: float64(1), ShippingAddress: fakeAddress("US")})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeCheckoutError, cerr.Code)
}

func TestCreateCheckoutSession_Cart(t *testing.T) {
	f := newComposerFixture()

	session, cerr := f.create(t, &Request{
		ShippingAddress: fakeAddress("US"),
		IsCartCheckout:  true,
		CartItems: []CartItem{
			{ProductID: ProductLimitedEditionCard, Quantity: float64(2), CardFinish: "gloss"},
			{ProductID: "gift-card", Quantity: float64(1)},
			{ProductID: ProductCustomCard, Quantity: "3", CardFinish: "rainbow", CustomImageURL: "https://cdn.example.com/a.png"},
			{ProductID: ProductDisplayCase, Quantity: float64(1)},
		},
	})
	require.Nil(t, cerr)
	assert.Equal(t, ModeCart, session.Mode)

	params := f.payments.sessions[0]
	require.Len(t, params.LineItems, 3)

	card := params.LineItems[0]
	assert.Equal(t, "price_limited-edition-card_gloss_1300", *card.Price)
	require.NotNil(t, card.AdjustableQuantity)
	assert.Equal(t, int64(50), *card.AdjustableQuantity.Maximum)

	custom := params.LineItems[1]
	assert.Equal(t, int64(1600), *custom.PriceData.UnitAmount)
	assert.Equal(t, int64(3), *custom.Quantity)

	displayCase := params.LineItems[2]
	assert.Nil(t, displayCase.AdjustableQuantity)
	assert.Equal(t, int64(1), *displayCase.Quantity)

	assert.Equal(t, "6", params.Metadata["total_quantity"])
	assert.Equal(t, "3", params.Metadata["line_item_count"])
	assert.Equal(t, "cart", params.Metadata["purchase_type"])
	assert.True(t, *params.AutomaticTax.Enabled)
	assert.Equal(t, int64(499), *params.ShippingOptions[0].ShippingRateData.FixedAmount.Amount)
}

func TestCreateCheckoutSession_CartOnlyUnknownItems(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{
		ShippingAddress: fakeAddress("US"),
		IsCartCheckout:  true,
		CartItems: []CartItem{
			{ProductID: "sticker-pack", Quantity: float64(1)},
			{ProductID: "", Quantity: float64(2)},
		},
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidCartItems, cerr.Code)
	assert.Empty(t, f.payments.sessions)
	assert.Empty(t, f.payments.prices)
}

func TestCreateCheckoutSession_CartInventoryAggregated(t *testing.T) {
	f := newComposerFixture()
	f.inventory.snap.Inventory = 5

	_, cerr := f.create(t, &Request{
		ShippingAddress: fakeAddress("US"),
		IsCartCheckout:  true,
		CartItems: []CartItem{
			{ProductID: ProductLimitedEditionCard, Quantity: float64(3)},
			{ProductID: ProductLimitedEditionCard, Quantity: float64(3), CardFinish: "rainbow"},
		},
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInsufficientInventory, cerr.Code)
	assert.Equal(t, int64(6), cerr.Details["requested"])
	assert.Empty(t, f.payments.prices)
}

func TestCreateCheckoutSession_CartItemInvalidQuantity(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{
		ShippingAddress: fakeAddress("US"),
		IsCartCheckout:  true,
		CartItems:       []CartItem{{ProductID: ProductCustomCard, Quantity: float64(0)}},
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInvalidQuantity, cerr.Code)
	assert.Equal(t, ProductCustomCard, cerr.Details["productId"])
}

func TestCreateCheckoutSession_MarketplaceRainbowTen(t *testing.T) {
	f := newComposerFixture()

	session, cerr := f.create(t, &Request{
		Quantity:        float64(10),
		ShippingAddress: fakeAddress("US"),
		IsMarketplace:   true,
		ListingID:       "listing-1",
		CardFinish:      "rainbow",
	})
	require.Nil(t, cerr)
	assert.Equal(t, ModeMarketplace, session.Mode)

	params := f.payments.sessions[0]
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(700), *item.PriceData.UnitAmount)
	assert.Equal(t, int64(10), *item.Quantity)
	assert.Equal(t, int64(40), *item.AdjustableQuantity.Maximum)

	assert.False(t, *params.AutomaticTax.Enabled)
	assert.Equal(t, "50", params.Metadata["discount_percent"])
	assert.Equal(t, "700", params.Metadata["unit_price_cents"])
	assert.Equal(t, "7000", params.Metadata["total_price_cents"])
	assert.Equal(t, "seller-1", params.Metadata["seller_id"])
	assert.Equal(t, "listing-1", params.Metadata["listing_id"])
	assert.Equal(t, "https://cardify.test/marketplace/listing-1", *params.CancelURL)
	assert.Empty(t, f.inventory.origins, "marketplace checkout does not use the inventory endpoint")
}

func TestCreateCheckoutSession_MarketplaceDisplayCase(t *testing.T) {
	f := newComposerFixture()

	_, cerr := f.create(t, &Request{
		Quantity:            float64(1),
		ShippingAddress:     fakeAddress("CA"),
		IsMarketplace:       true,
		ListingID:           "listing-1",
		IncludeDisplayCase:  true,
		DisplayCaseQuantity: float64(2),
	})
	require.Nil(t, cerr)

	params := f.payments.sessions[0]
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(1000), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(1900), *params.LineItems[1].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[1].Quantity)
	assert.Equal(t, "0", params.Metadata["discount_percent"])
}

func TestCreateCheckoutSession_MarketplaceListingNotFound(t *testing.T) {
	f := newComposerFixture()
	f.listings["listing-sold"] = &Listing{ID: "listing-sold", Status: "sold", PriceCents: 500}

	for _, id := range []string{"missing", "listing-sold"} {
		_, cerr := f.create(t, &Request{
			Quantity:        float64(1),
			ShippingAddress: fakeAddress("US"),
			IsMarketplace:   true,
			ListingID:       id,
		})
		require.NotNil(t, cerr, id)
		assert.Equal(t, CodeListingNotFound, cerr.Code)
		assert.Equal(t, http.StatusNotFound, cerr.Status)
	}
	assert.Empty(t, f.payments.sessions)
}

func TestCreateCheckoutSession_MarketplaceSupplyExceeded(t *testing.T) {
	f := newComposerFixture()
	f.listings["listing-1"].Series.RemainingSupply = 2

	_, cerr := f.create(t, &Request{
		Quantity:        float64(3),
		ShippingAddress: fakeAddress("US"),
		IsMarketplace:   true,
		ListingID:       "listing-1",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, CodeInsufficientInventory, cerr.Code)
	assert.Equal(t, int64(2), cerr.Details["available"])
}
