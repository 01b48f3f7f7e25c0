package stripe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/stripe/stripe-go/v80"
)

// FakeRequest is one call received by FakeAPI.
type FakeRequest struct {
	Method         string
	Path           string
	Form           url.Values
	IdempotencyKey string
}

// FakeAPI is an in-process stand-in for the Stripe endpoints checkout uses:
// customers, prices and checkout sessions.
type FakeAPI struct {
	Server *httptest.Server

	// FailCustomers and FailCheckout make the respective endpoint answer
	// with a Stripe error body.
	FailCustomers bool
	FailCheckout  bool

	mu       sync.Mutex
	seq      int
	prices   map[string]fakePrice
	requests []FakeRequest
}

type fakePrice struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	Active     bool   `json:"active"`
	Currency   string `json:"currency"`
	LookupKey  string `json:"lookup_key"`
	UnitAmount int64  `json:"unit_amount"`
}

func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{prices: make(map[string]fakePrice)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// Service returns a StripeService wired to the fake with retries disabled.
func (f *FakeAPI) Service() *StripeService {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(f.Server.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeServiceWithBackends("sk_test_fake", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func (f *FakeAPI) Close() {
	f.Server.Close()
}

// SeedPrice registers an active price under lookupKey.
func (f *FakeAPI) SeedPrice(lookupKey string, unitAmount int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.newPrice(lookupKey, unitAmount)
	return p.ID
}

// Requests returns the calls received so far, filtered by method and path
// when either is non-empty.
func (f *FakeAPI) Requests(method, path string) []FakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []FakeRequest
	for _, r := range f.requests {
		if (method == "" || r.Method == method) && (path == "" || r.Path == path) {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, FakeRequest{
		Method:         r.Method,
		Path:           r.URL.Path,
		Form:           r.Form,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
		if f.FailCustomers {
			writeStripeError(w, http.StatusPaymentRequired, "card_error", "Your card was declined.")
			return
		}
		writeJSON(w, map[string]any{"id": f.nextID("cus"), "object": "customer", "email": r.Form.Get("email")})

	case r.Method == http.MethodGet && r.URL.Path == "/v1/prices":
		data := []fakePrice{}
		if p, ok := f.prices[r.Form.Get("lookup_keys[0]")]; ok && p.Active {
			data = append(data, p)
		}
		writeJSON(w, map[string]any{"object": "list", "url": "/v1/prices", "has_more": false, "data": data})

	case r.Method == http.MethodPost && r.URL.Path == "/v1/prices":
		amount, _ := strconv.ParseInt(r.Form.Get("unit_amount"), 10, 64)
		writeJSON(w, f.newPrice(r.Form.Get("lookup_key"), amount))

	case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
		if f.FailCheckout {
			writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid shipping rate.")
			return
		}
		id := f.nextID("cs_test")
		writeJSON(w, map[string]any{
			"id":     id,
			"object": "checkout.session",
			"url":    "https://checkout.stripe.com/c/pay/" + id,
		})

	default:
		writeStripeError(w, http.StatusNotFound, "invalid_request_error", "Unrecognized request URL.")
	}
}

// newPrice must be called with f.mu held.
func (f *FakeAPI) newPrice(lookupKey string, unitAmount int64) fakePrice {
	p := fakePrice{
		ID:         f.nextID("price"),
		Object:     "price",
		Active:     true,
		Currency:   "usd",
		LookupKey:  lookupKey,
		UnitAmount: unitAmount,
	}
	if lookupKey != "" {
		f.prices[lookupKey] = p
	}
	return p
}

func (f *FakeAPI) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStripeError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": typ, "message": msg},
	})
}
