package checkout

import (
	"context"

	"villamar/models"
)

// CardRail verifies the hosted widget's payment server-side and reports the
// capture. It is the only rail whose success means "money moved".
type CardRail struct {
	Processor CardProcessor
}

func (r *CardRail) Execute(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutOutcome, error) {
	if session.CardIntentID == "" {
		return nil, NewError(CodeValidation, "no card payment session was opened for this checkout")
	}

	capture, err := r.Processor.VerifyIntent(ctx, session.CardIntentID)
	if err != nil {
		return nil, err
	}

	// The capture must match what was quoted; a mismatch means the widget
	// was fed a different intent.
	if session.Quote != nil && capture.Amount != session.Quote.TotalAmount {
		return nil, NewError(CodeRailDeclined, "captured amount does not match the quoted total")
	}

	return &models.CheckoutOutcome{Rail: models.RailCard, Card: capture}, nil
}
