package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	paymentRepo "villamar/database/repository/payment"
	"villamar/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// partialFailureNotice is what the guest sees when the payment went through
// but our own booking record could not be updated.
const partialFailureNotice = "Your payment was received, but we could not finish confirming the booking. Please contact support with your reference."

// Start validates the selection, obtains a fresh quote and opens a session
// in collecting_details.
func (s *DefaultCheckoutService) Start(ctx context.Context, req StartCheckoutRequest) (*models.CheckoutSession, error) {
	if err := validateStartRequest(req); err != nil {
		return nil, err
	}
	if req.Nonce == "" {
		return nil, NewError(CodeValidation, "a checkout nonce is required")
	}

	q, err := s.Quotes.GetQuote(ctx, req.UnitID, req.CheckIn, req.CheckOut, req.Guests)
	if err != nil {
		return nil, WrapError(CodeRailTransient, "could not obtain a price quote", err)
	}

	session := &models.CheckoutSession{
		SessionID: uuid.New().String(),
		UnitID:    req.UnitID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    req.Guests,
		Quote:     q,
		State:     models.CheckoutStateCollectingDetails,
		Nonce:     req.Nonce,
		CreatedAt: time.Now(),
	}
	if err := s.Sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	s.Logger.Info("checkout session started",
		zap.String("sessionId", session.SessionID),
		zap.String("unitId", req.UnitID),
		zap.Int64("total", q.TotalAmount))
	return session, nil
}

// SubmitDetails moves the session from collecting_details to
// awaiting_payment: it validates the guest form, re-validates the quote,
// creates (or reuses) the pending booking and, for the card rail, opens the
// payment-collection session.
func (s *DefaultCheckoutService) SubmitDetails(ctx context.Context, sessionID string, details models.GuestDetails, rail string) (*models.CheckoutSession, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.State {
	case models.CheckoutStateCollectingDetails, models.CheckoutStateAwaitingPayment:
		// re-submission before payment execution is fine
	default:
		return nil, NewError(CodeSessionState, "checkout has already progressed past detail entry")
	}

	if err := validateGuestDetails(details); err != nil {
		return nil, err
	}
	if !validRail(rail) {
		return nil, NewError(CodeValidation, "unknown payment method")
	}

	// The quote the guest saw must still be fresh and must describe this
	// exact selection; anything else forces a re-quote.
	if session.Quote == nil ||
		!session.Quote.Matches(session.UnitID, session.CheckIn, session.CheckOut, session.Guests) {
		return nil, NewError(CodeQuoteMismatch, "quote does not match the selected stay, request a new quote")
	}
	if session.Quote.Stale(time.Now(), s.QuoteMaxAge) {
		return nil, NewError(CodeQuoteMismatch, "quote has expired, request a new quote")
	}

	session.Guest = &details

	// A rail switch away from card discards the card artifacts right here:
	// a live client secret must not survive into a bank-transfer or cash
	// checkout.
	if session.CardIntentID != "" && rail != models.RailCard {
		if err := s.Cards.CancelIntent(ctx, session.CardIntentID); err != nil {
			s.Logger.Warn("could not cancel payment intent on rail switch",
				zap.String("intentId", session.CardIntentID), zap.Error(err))
		}
		session.CardIntentID = ""
		session.CardClientSecret = ""
	}

	// Create the booking exactly once per attempt. A retry, or a rail
	// switch that came back through here, reuses the stored booking.
	if session.BookingID == "" {
		booking := &models.Booking{
			UnitID:          session.UnitID,
			CheckIn:         session.CheckIn,
			CheckOut:        session.CheckOut,
			Guests:          session.Guests,
			AmountTotal:     session.Quote.TotalAmount,
			Currency:        session.Quote.Currency,
			Status:          models.BookingStatusPending,
			CustomerName:    details.FullName(),
			CustomerEmail:   details.Email,
			CustomerPhone:   details.Phone,
			CustomerCountry: details.Country,
			SpecialRequests: details.SpecialRequests,
			IdempotencyKey:  s.idempotencyKey(session, details),
		}
		stored, created, err := s.Bookings.CreateIdempotent(ctx, booking)
		if err != nil {
			return nil, WrapError(CodeRailTransient, "could not create the booking", err)
		}
		session.BookingID = stored.ID
		if !created {
			s.Logger.Info("reusing booking from earlier attempt",
				zap.String("sessionId", sessionID),
				zap.String("bookingId", stored.ID))
		}
	}

	// Card checkouts need a payment-collection session bound to the
	// booking before the widget can render. Failure here is recoverable:
	// the guest stays in collecting_details and the booking is kept.
	if rail == models.RailCard && session.CardIntentID == "" {
		intentID, clientSecret, err := s.Cards.CreateIntent(ctx,
			session.BookingID,
			session.Quote.TotalAmount,
			session.Quote.Currency,
			details.Email,
			"intent-"+session.Nonce)
		if err != nil {
			if putErr := s.Sessions.Put(ctx, session); putErr != nil {
				s.Logger.Error("failed to save session after intent failure", zap.Error(putErr))
			}
			return nil, err
		}
		session.CardIntentID = intentID
		session.CardClientSecret = clientSecret
	}

	session.Rail = rail
	session.State = models.CheckoutStateAwaitingPayment
	if err := s.Sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	s.Logger.Info("checkout awaiting payment",
		zap.String("sessionId", sessionID),
		zap.String("bookingId", session.BookingID),
		zap.String("rail", rail))
	return session, nil
}

// ExecutePayment runs the selected rail and, on success, the side-effect
// pipeline. A second signal for the same session is ignored: the recorded
// outcome is returned and no side effects re-run.
func (s *DefaultCheckoutService) ExecutePayment(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	locked, err := s.Sessions.AcquireLock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, NewError(CodeSessionConflict, "payment already in progress for this checkout")
	}
	defer func() {
		if err := s.Sessions.ReleaseLock(ctx, sessionID); err != nil {
			s.Logger.Warn("failed to release session lock", zap.String("sessionId", sessionID), zap.Error(err))
		}
	}()

	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.State {
	case models.CheckoutStateAwaitingPayment:
		// proceed
	case models.CheckoutStateConfirming, models.CheckoutStateDone:
		// duplicate success signal: idempotent replay of the recorded result
		return session, nil
	default:
		return nil, NewError(CodeSessionState, "guest details must be submitted before paying")
	}

	rail, ok := s.Rails[session.Rail]
	if !ok {
		return nil, NewError(CodeValidation, "unknown payment method")
	}

	outcome, err := rail.Execute(ctx, session)
	if err != nil {
		// The booking survives every rail failure so a retry reuses it.
		s.Logger.Warn("payment rail failed",
			zap.String("sessionId", sessionID),
			zap.String("bookingId", session.BookingID),
			zap.String("rail", session.Rail),
			zap.String("code", ErrCode(err)))
		return nil, err
	}

	// Persist the accepted signal before side effects; a crash past this
	// point must not let a replay re-run the rail.
	session.State = models.CheckoutStateConfirming
	session.Outcome = outcome
	if err := s.Sessions.Put(ctx, session); err != nil {
		return nil, WrapError(CodePartialFailure, "payment succeeded but the session could not be updated", err)
	}

	booking := s.loadBookingForPipeline(ctx, session)
	report := s.Pipeline.Run(ctx, booking, outcome)
	if report.StatusErr != nil {
		session.Warning = partialFailureNotice
	}

	session.State = models.CheckoutStateDone
	if err := s.Sessions.Put(ctx, session); err != nil {
		s.Logger.Error("failed to persist done state", zap.String("sessionId", sessionID), zap.Error(err))
	}

	s.Logger.Info("checkout complete",
		zap.String("sessionId", sessionID),
		zap.String("bookingId", session.BookingID),
		zap.String("rail", session.Rail),
		zap.Bool("statusUpdated", report.StatusUpdated),
		zap.Bool("automationDispatched", report.Automation.Dispatched),
		zap.Bool("emailDispatched", report.Email.Dispatched))
	return session, nil
}

// Back returns the guest to detail entry, discarding payment-rail artifacts
// while keeping the pending booking for reuse. It holds the same execution
// lock as ExecutePayment: the session is read only after the lock is held,
// so a back request can never regress a session a concurrent payment just
// completed.
func (s *DefaultCheckoutService) Back(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	locked, err := s.Sessions.AcquireLock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, NewError(CodeSessionConflict, "payment already in progress for this checkout")
	}
	defer func() {
		if err := s.Sessions.ReleaseLock(ctx, sessionID); err != nil {
			s.Logger.Warn("failed to release session lock", zap.String("sessionId", sessionID), zap.Error(err))
		}
	}()

	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.State {
	case models.CheckoutStateConfirming, models.CheckoutStateDone:
		return nil, NewError(CodeSessionState, "checkout already completed")
	}

	if session.CardIntentID != "" {
		if err := s.Cards.CancelIntent(ctx, session.CardIntentID); err != nil {
			s.Logger.Warn("could not cancel payment intent",
				zap.String("intentId", session.CardIntentID), zap.Error(err))
		}
		session.CardIntentID = ""
		session.CardClientSecret = ""
	}

	if session.BookingID != "" {
		if record, err := s.Payments.GetActiveByBooking(ctx, session.BookingID); err == nil &&
			record.Status == models.PaymentStatusPending {
			if err := s.Payments.UpdateStatusFrom(ctx, record.ID,
				models.PaymentStatusPending, models.PaymentStatusCancelled, ""); err != nil {
				s.Logger.Warn("could not cancel pending payment record",
					zap.String("recordId", record.ID), zap.Error(err))
			}
		} else if err != nil && !errors.Is(err, paymentRepo.ErrNotFound) {
			s.Logger.Warn("could not look up payment record on back action", zap.Error(err))
		}
	}

	session.Rail = ""
	session.Outcome = nil
	session.State = models.CheckoutStateCollectingDetails
	if err := s.Sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the current session.
func (s *DefaultCheckoutService) Get(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	return s.Sessions.Get(ctx, sessionID)
}

// idempotencyKey derives the booking-create key from the attempt's identity:
// selection, guest email and the client nonce.
func (s *DefaultCheckoutService) idempotencyKey(session *models.CheckoutSession, details models.GuestDetails) string {
	raw := strings.Join([]string{
		session.UnitID,
		session.CheckIn,
		session.CheckOut,
		strconv.Itoa(session.Guests),
		strings.ToLower(details.Email),
		session.Nonce,
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// loadBookingForPipeline fetches the booking for the side-effect pipeline,
// falling back to session data so a read failure cannot void the pipeline
// after a committed payment.
func (s *DefaultCheckoutService) loadBookingForPipeline(ctx context.Context, session *models.CheckoutSession) *models.Booking {
	booking, err := s.Bookings.GetByID(ctx, session.BookingID)
	if err == nil {
		return booking
	}
	s.Logger.Error("could not load booking for side effects, using session snapshot",
		zap.String("bookingId", session.BookingID), zap.Error(err))

	fallback := &models.Booking{
		ID:       session.BookingID,
		UnitID:   session.UnitID,
		CheckIn:  session.CheckIn,
		CheckOut: session.CheckOut,
		Guests:   session.Guests,
		Status:   models.BookingStatusPending,
	}
	if session.Quote != nil {
		fallback.AmountTotal = session.Quote.TotalAmount
		fallback.Currency = session.Quote.Currency
	}
	if session.Guest != nil {
		fallback.CustomerName = session.Guest.FullName()
		fallback.CustomerEmail = session.Guest.Email
	}
	return fallback
}

var _ CheckoutService = (*DefaultCheckoutService)(nil)
