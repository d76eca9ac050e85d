package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	bookingRepo "villamar/database/repository/booking"
	"villamar/models"
	"villamar/services/notify"

	"go.uber.org/zap"
)

// PipelineReport records what each post-payment step did. Dispatch outcomes
// are kept instead of discarded so a reconciliation job can replay failures.
type PipelineReport struct {
	StatusUpdated bool                  `json:"statusUpdated"`
	StatusErr     error                 `json:"-"`
	Automation    notify.DispatchResult `json:"automation"`
	Email         notify.DispatchResult `json:"email"`
}

// SideEffectPipeline runs the ordered post-payment sequence: booking status
// update, automation trigger, confirmation email. Steps two and three are
// fault-isolated; only a step-one failure is surfaced, because it leaves the
// system's own record inconsistent with an already-committed payment.
type SideEffectPipeline struct {
	Bookings   bookingRepo.BookingRepository
	Automation notify.AutomationDispatcher
	Email      notify.EmailDispatcher
	Logger     *zap.Logger
}

func (p *SideEffectPipeline) Run(ctx context.Context, booking *models.Booking, outcome *models.CheckoutOutcome) PipelineReport {
	var report PipelineReport

	// Step 1: booking status. Card captures confirm immediately; SEPA and
	// cash leave the booking pending for the admin approval path.
	if outcome.SettlesImmediately() {
		err := p.Bookings.UpdateStatusFrom(ctx, booking.ID, models.BookingStatusPending, models.BookingStatusConfirmed)
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			// A retried execution already confirmed it.
			if current, getErr := p.Bookings.GetByID(ctx, booking.ID); getErr == nil && current.Status == models.BookingStatusConfirmed {
				err = nil
			}
		}
		if err != nil {
			report.StatusErr = err
			p.Logger.Error("booking status update failed after successful payment",
				zap.String("bookingId", booking.ID),
				zap.String("rail", outcome.Rail),
				zap.String("reference", outcome.Reference()),
				zap.Error(err))
		} else {
			report.StatusUpdated = true
			booking.Status = models.BookingStatusConfirmed
		}
	}

	// Step 2: automation trigger. Never blocks, never rolls back step 1.
	report.Automation = p.dispatchAutomation(ctx, booking, outcome)

	// Step 3: email. Same isolation.
	report.Email = p.dispatchEmail(ctx, booking, outcome)

	return report
}

func (p *SideEffectPipeline) dispatchAutomation(ctx context.Context, booking *models.Booking, outcome *models.CheckoutOutcome) (result notify.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = notify.Failed(fmt.Errorf("automation dispatcher panicked: %v", r))
			p.Logger.Error("automation dispatch panic", zap.Any("panic", r), zap.String("bookingId", booking.ID))
		}
	}()

	event := notify.EventBookingCreated
	if outcome.SettlesImmediately() {
		event = notify.EventBookingConfirmed
	}
	return p.Automation.Trigger(ctx, event, booking.ID, map[string]string{
		"rail":      outcome.Rail,
		"reference": outcome.Reference(),
		"amount":    strconv.FormatInt(booking.AmountTotal, 10),
		"currency":  booking.Currency,
	})
}

func (p *SideEffectPipeline) dispatchEmail(ctx context.Context, booking *models.Booking, outcome *models.CheckoutOutcome) (result notify.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = notify.Failed(fmt.Errorf("email dispatcher panicked: %v", r))
			p.Logger.Error("email dispatch panic", zap.Any("panic", r), zap.String("bookingId", booking.ID))
		}
	}()

	data := map[string]string{
		"reference": outcome.Reference(),
		"amount":    strconv.FormatInt(booking.AmountTotal, 10),
		"currency":  booking.Currency,
		"checkIn":   booking.CheckIn,
		"checkOut":  booking.CheckOut,
	}

	var kind notify.TemplateKind
	switch outcome.Rail {
	case models.RailCard:
		kind = notify.TemplateCardReceipt
	case models.RailSepa:
		kind = notify.TemplateTransferInstructions
		if outcome.Sepa != nil {
			data["iban"] = outcome.Sepa.IBAN
			data["expiresAt"] = outcome.Sepa.ExpiresAt.Format("2006-01-02")
		}
	case models.RailCash:
		kind = notify.TemplateArrivalInstructions
		if outcome.Cash != nil {
			data["paymentLocation"] = outcome.Cash.PaymentLocation
		}
	}

	return p.Email.Send(ctx, kind, booking.ID, booking.CustomerEmail, data)
}
