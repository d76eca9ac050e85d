package checkout

import (
	"context"
	"errors"
	"strings"

	"villamar/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeCardProcessor is the production CardProcessor. It relies on the
// package-global stripe.Key set at startup.
type StripeCardProcessor struct {
	Logger *zap.Logger
}

func NewStripeCardProcessor(logger *zap.Logger) *StripeCardProcessor {
	return &StripeCardProcessor{Logger: logger}
}

func (p *StripeCardProcessor) CreateIntent(ctx context.Context, bookingID string, amount int64, currency, customerEmail, idempotencyKey string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if customerEmail != "" {
		params.ReceiptEmail = stripe.String(customerEmail)
	}
	params.Context = ctx
	params.AddMetadata("bookingId", bookingID)
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", p.classify(err, "failed to create payment intent")
	}
	return pi.ID, pi.ClientSecret, nil
}

func (p *StripeCardProcessor) VerifyIntent(ctx context.Context, intentID string) (*models.CardCapture, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, p.classify(err, "failed to verify payment intent")
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return &models.CardCapture{
			IntentID: pi.ID,
			Amount:   pi.Amount,
			Currency: strings.ToUpper(string(pi.Currency)),
		}, nil
	case stripe.PaymentIntentStatusProcessing:
		return nil, NewError(CodeRailTransient, "card payment still processing, try again shortly")
	default:
		// requires_payment_method, requires_action, canceled: the charge did
		// not go through.
		return nil, NewError(CodeRailDeclined, "card payment was not completed")
	}
}

func (p *StripeCardProcessor) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(intentID, params)
	return err
}

// classify maps Stripe failures onto the checkout error taxonomy.
func (p *StripeCardProcessor) classify(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		p.Logger.Warn("stripe error",
			zap.String("type", string(stripeErr.Type)),
			zap.String("code", string(stripeErr.Code)),
			zap.String("msg", stripeErr.Msg))
		if stripeErr.Type == stripe.ErrorTypeCard {
			return WrapError(CodeRailDeclined, stripeErr.Msg, err)
		}
	}
	return WrapError(CodeRailTransient, message, err)
}
