package checkout

import (
	"context"
	"time"

	bookingRepo "villamar/database/repository/booking"
	paymentRepo "villamar/database/repository/payment"
	"villamar/models"
	"villamar/services/quote"

	"go.uber.org/zap"
)

// StartCheckoutRequest opens a checkout session for a unit and date range.
// Nonce is the client-generated token that scopes booking-create idempotency
// to this attempt.
type StartCheckoutRequest struct {
	UnitID   string `json:"unitId"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Guests   int    `json:"guests"`
	Nonce    string `json:"nonce"`
}

// CheckoutService drives a guest through detail entry, payment-method
// selection, payment execution and confirmation, producing exactly one
// booking and at most one payment record per successful attempt.
type CheckoutService interface {
	Start(ctx context.Context, req StartCheckoutRequest) (*models.CheckoutSession, error)
	SubmitDetails(ctx context.Context, sessionID string, details models.GuestDetails, rail string) (*models.CheckoutSession, error)
	ExecutePayment(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	Back(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	Get(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
}

// DefaultCheckoutService implements CheckoutService.
type DefaultCheckoutService struct {
	Sessions    SessionStore
	Quotes      quote.QuoteService
	Bookings    bookingRepo.BookingRepository
	Payments    paymentRepo.PaymentRecordRepository
	Cards       CardProcessor
	Rails       map[string]PaymentRail
	Pipeline    *SideEffectPipeline
	QuoteMaxAge time.Duration
	Logger      *zap.Logger
}
