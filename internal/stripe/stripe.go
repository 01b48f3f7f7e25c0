package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
)

// StripeService wraps the Stripe API calls used by checkout.
type StripeService struct {
	sc *client.API
}

func NewStripeService(secretKey string) *StripeService {
	return NewStripeServiceWithBackends(secretKey, nil)
}

// NewStripeServiceWithBackends lets tests point the client at a fake API.
func NewStripeServiceWithBackends(secretKey string, backends *stripe.Backends) *StripeService {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeService{sc: sc}
}

func (s *StripeService) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return s.sc.Customers.New(params)
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	slog.Info("created stripe checkout session", "session_id", session.ID)
	return session, nil
}

// IsStripeError reports whether err came back from the Stripe API and returns
// its message.
func IsStripeError(err error) (string, bool) {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Msg != "" {
			return se.Msg, true
		}
		return fmt.Sprintf("stripe %s error", se.Type), true
	}
	return "", false
}
