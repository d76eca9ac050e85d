package checkout

import (
	"context"

	"villamar/models"
)

// PaymentRail executes one payment method for a session that already owns a
// pending booking. Success means the rail's own notion of success: a card
// capture for the card rail, instructions issued for SEPA and cash.
//
// Adapters return coded checkout errors only; rail-specific vocabulary never
// leaks to the orchestrator.
type PaymentRail interface {
	Execute(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutOutcome, error)
}

// CardProcessor abstracts the hosted card payment provider.
type CardProcessor interface {
	// CreateIntent opens a payment-collection session bound to the booking
	// and returns the intent id plus the client secret the hosted widget
	// needs.
	CreateIntent(ctx context.Context, bookingID string, amount int64, currency, customerEmail, idempotencyKey string) (intentID, clientSecret string, err error)
	// VerifyIntent re-checks the intent server-side; the widget's
	// client-reported result is never trusted.
	VerifyIntent(ctx context.Context, intentID string) (*models.CardCapture, error)
	// CancelIntent voids an unused intent, e.g. when the guest goes back.
	CancelIntent(ctx context.Context, intentID string) error
}
