package checkout

import (
	"context"
	"errors"
	"testing"

	"villamar/models"
	"villamar/services/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pipelineFixture() (*SideEffectPipeline, *memBookingRepo, *fakeAutomation, *fakeEmail, *models.Booking) {
	bookings := newMemBookingRepo()
	automation := &fakeAutomation{}
	email := &fakeEmail{}
	pipeline := &SideEffectPipeline{
		Bookings:   bookings,
		Automation: automation,
		Email:      email,
		Logger:     zap.NewNop(),
	}

	booking := &models.Booking{
		UnitID:         "villa-mar-2",
		CheckIn:        "2026-09-10",
		CheckOut:       "2026-09-13",
		Guests:         4,
		AmountTotal:    54000,
		Currency:       "EUR",
		Status:         models.BookingStatusPending,
		CustomerName:   "Ana Moreno",
		CustomerEmail:  "ana.moreno@example.com",
		IdempotencyKey: "fixture-key",
	}
	stored, _, _ := bookings.CreateIdempotent(context.Background(), booking)
	return pipeline, bookings, automation, email, stored
}

func cardOutcome() *models.CheckoutOutcome {
	return &models.CheckoutOutcome{
		Rail: models.RailCard,
		Card: &models.CardCapture{IntentID: "pi_test_123", Amount: 54000, Currency: "EUR"},
	}
}

func TestPipelineCardConfirmsBooking(t *testing.T) {
	pipeline, bookings, automation, email, booking := pipelineFixture()

	report := pipeline.Run(context.Background(), booking, cardOutcome())

	assert.True(t, report.StatusUpdated)
	assert.NoError(t, report.StatusErr)
	assert.Equal(t, models.BookingStatusConfirmed, bookings.status(booking.ID))
	assert.Equal(t, []string{notify.EventBookingConfirmed}, automation.events)
	assert.Equal(t, []notify.TemplateKind{notify.TemplateCardReceipt}, email.kinds)
}

func TestPipelineDeferredRailsLeaveBookingPending(t *testing.T) {
	pipeline, bookings, automation, email, booking := pipelineFixture()

	outcome := &models.CheckoutOutcome{
		Rail: models.RailSepa,
		Sepa: &models.TransferInstructions{Reference: "VM-ABCD2345", IBAN: "ES91"},
	}
	report := pipeline.Run(context.Background(), booking, outcome)

	assert.False(t, report.StatusUpdated)
	assert.Equal(t, models.BookingStatusPending, bookings.status(booking.ID))
	assert.Equal(t, []string{notify.EventBookingCreated}, automation.events)
	assert.Equal(t, []notify.TemplateKind{notify.TemplateTransferInstructions}, email.kinds)
}

func TestPipelineStatusFailureDoesNotSuppressDispatches(t *testing.T) {
	pipeline, bookings, automation, email, booking := pipelineFixture()
	bookings.updateErr = errors.New("mongo: connection reset")

	report := pipeline.Run(context.Background(), booking, cardOutcome())

	require.Error(t, report.StatusErr)
	assert.False(t, report.StatusUpdated)
	// Automation and email still ran; a support follow-up needs them.
	assert.Len(t, automation.events, 1)
	assert.Len(t, email.kinds, 1)
}

func TestPipelineStatusConflictToleratedWhenAlreadyConfirmed(t *testing.T) {
	pipeline, bookings, _, _, booking := pipelineFixture()
	require.NoError(t, bookings.UpdateStatusFrom(context.Background(), booking.ID,
		models.BookingStatusPending, models.BookingStatusConfirmed))

	report := pipeline.Run(context.Background(), booking, cardOutcome())

	assert.True(t, report.StatusUpdated)
	assert.NoError(t, report.StatusErr)
}

func TestPipelineDispatchFailuresAreIsolated(t *testing.T) {
	t.Run("automation failure does not block email", func(t *testing.T) {
		pipeline, _, automation, email, booking := pipelineFixture()
		automation.err = errors.New("fcm unavailable")

		report := pipeline.Run(context.Background(), booking, cardOutcome())

		assert.False(t, report.Automation.Dispatched)
		assert.NotEmpty(t, report.Automation.Error)
		assert.True(t, report.Email.Dispatched)
		assert.Len(t, email.kinds, 1)
	})

	t.Run("automation panic is contained", func(t *testing.T) {
		pipeline, bookings, automation, email, booking := pipelineFixture()
		automation.panics = true

		var report PipelineReport
		require.NotPanics(t, func() {
			report = pipeline.Run(context.Background(), booking, cardOutcome())
		})

		assert.False(t, report.Automation.Dispatched)
		assert.True(t, report.Email.Dispatched)
		assert.Len(t, email.kinds, 1)
		assert.Equal(t, models.BookingStatusConfirmed, bookings.status(booking.ID))
	})

	t.Run("email panic is contained", func(t *testing.T) {
		pipeline, _, automation, email, booking := pipelineFixture()
		email.panics = true

		var report PipelineReport
		require.NotPanics(t, func() {
			report = pipeline.Run(context.Background(), booking, cardOutcome())
		})

		assert.True(t, report.Automation.Dispatched)
		assert.Len(t, automation.events, 1)
		assert.False(t, report.Email.Dispatched)
		assert.NotEmpty(t, report.Email.Error)
	})
}
