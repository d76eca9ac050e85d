package admin

import (
	"context"
	"errors"
	"time"

	bookingRepo "villamar/database/repository/booking"
	paymentRepo "villamar/database/repository/payment"
	"villamar/models"
	"villamar/services/notify"

	"go.uber.org/zap"
)

// ApprovalService is the admin-side consumer of the payment record store:
// it confirms or cancels pending SEPA/cash payments and keeps the owning
// booking's status in step.
type ApprovalService interface {
	Approve(ctx context.Context, recordID, approver string) (*models.PaymentRecord, error)
	ApproveByReference(ctx context.Context, reference, approver string) (*models.PaymentRecord, error)
	Cancel(ctx context.Context, recordID string) (*models.PaymentRecord, error)
	ListPending(ctx context.Context) ([]models.PaymentRecord, error)
	GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
}

// DefaultApprovalService implements ApprovalService.
type DefaultApprovalService struct {
	Payments   paymentRepo.PaymentRecordRepository
	Bookings   bookingRepo.BookingRepository
	Automation notify.AutomationDispatcher
	Email      notify.EmailDispatcher
	Logger     *zap.Logger
	Now        func() time.Time // injectable clock for expiry checks
}

func (s *DefaultApprovalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Approve confirms a pending record and its booking. Approving an
// already-confirmed record is a no-op so a double-click cannot hurt; an
// expired SEPA record is rejected even if its stored status is still
// pending, with expiry evaluated at the moment of this call.
func (s *DefaultApprovalService) Approve(ctx context.Context, recordID, approver string) (*models.PaymentRecord, error) {
	record, err := s.Payments.GetByID(ctx, recordID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return nil, NewError(CodeMissingRecord, "payment record not found")
	}
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case models.PaymentStatusConfirmed:
		// idempotent: no second email, no state change
		return record, nil
	case models.PaymentStatusCancelled:
		return nil, NewError(CodeAlreadyCancelled, "payment record was cancelled")
	}

	if record.Expired(s.now()) {
		return nil, NewError(CodeExpired, "payment window has expired")
	}

	err = s.Payments.UpdateStatusFrom(ctx, record.ID,
		models.PaymentStatusPending, models.PaymentStatusConfirmed, approver)
	if errors.Is(err, paymentRepo.ErrStatusConflict) {
		// Raced another approval; treat a concurrent confirm as our no-op.
		current, getErr := s.Payments.GetByID(ctx, record.ID)
		if getErr == nil && current.Status == models.PaymentStatusConfirmed {
			return current, nil
		}
		return nil, NewError(CodeNotPending, "payment record is no longer pending")
	}
	if err != nil {
		return nil, err
	}

	// The booking must follow; if it cannot, compensate the record back so
	// the action mutates both or neither.
	err = s.Bookings.UpdateStatusFrom(ctx, record.BookingID,
		models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil && !s.bookingAlreadyConfirmed(ctx, record.BookingID, err) {
		if revertErr := s.Payments.UpdateStatusFrom(ctx, record.ID,
			models.PaymentStatusConfirmed, models.PaymentStatusPending, ""); revertErr != nil {
			s.Logger.Error("failed to revert payment record after booking update failure",
				zap.String("recordId", record.ID),
				zap.String("bookingId", record.BookingID),
				zap.Error(revertErr))
			return nil, WrapError(CodeInconsistent, "payment confirmed but booking update and revert both failed", err)
		}
		return nil, WrapError(CodeInconsistent, "could not confirm the booking, approval rolled back", err)
	}

	record.Status = models.PaymentStatusConfirmed
	record.ApprovedBy = approver

	res := s.Automation.Trigger(ctx, notify.EventPaymentReceived, record.BookingID, map[string]string{
		"recordId":  record.ID,
		"reference": record.Reference,
		"method":    record.Method,
		"approver":  approver,
	})
	if !res.Dispatched {
		s.Logger.Warn("payment_received trigger failed", zap.String("recordId", record.ID), zap.String("error", res.Error))
	}

	mail := s.Email.Send(ctx, notify.TemplatePaymentApproved, record.BookingID, record.CustomerEmail, map[string]string{
		"reference": record.Reference,
	})
	if !mail.Dispatched {
		s.Logger.Warn("approval email failed", zap.String("recordId", record.ID), zap.String("error", mail.Error))
	}

	s.Logger.Info("payment approved",
		zap.String("recordId", record.ID),
		zap.String("bookingId", record.BookingID),
		zap.String("approver", approver))
	return record, nil
}

// ApproveByReference resolves a reference to exactly one active record and
// approves it. Missing and ambiguous references are distinct rejections;
// nothing is ever matched to the "closest" record.
func (s *DefaultApprovalService) ApproveByReference(ctx context.Context, reference, approver string) (*models.PaymentRecord, error) {
	record, err := s.resolveReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.Approve(ctx, record.ID, approver)
}

// Cancel voids a pending record and cancels the owning booking. A confirmed
// record is never cancelled through this path.
func (s *DefaultApprovalService) Cancel(ctx context.Context, recordID string) (*models.PaymentRecord, error) {
	record, err := s.Payments.GetByID(ctx, recordID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return nil, NewError(CodeMissingRecord, "payment record not found")
	}
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case models.PaymentStatusCancelled:
		return record, nil // idempotent
	case models.PaymentStatusConfirmed:
		return nil, NewError(CodeNotPending, "a confirmed payment cannot be cancelled")
	}

	err = s.Payments.UpdateStatusFrom(ctx, record.ID,
		models.PaymentStatusPending, models.PaymentStatusCancelled, "")
	if errors.Is(err, paymentRepo.ErrStatusConflict) {
		return nil, NewError(CodeNotPending, "payment record is no longer pending")
	}
	if err != nil {
		return nil, err
	}

	err = s.Bookings.UpdateStatusFrom(ctx, record.BookingID,
		models.BookingStatusPending, models.BookingStatusCancelled)
	if err != nil && !s.bookingAlreadyCancelled(ctx, record.BookingID, err) {
		if revertErr := s.Payments.UpdateStatusFrom(ctx, record.ID,
			models.PaymentStatusCancelled, models.PaymentStatusPending, ""); revertErr != nil {
			s.Logger.Error("failed to revert payment record after booking cancel failure",
				zap.String("recordId", record.ID), zap.Error(revertErr))
			return nil, WrapError(CodeInconsistent, "payment cancelled but booking update and revert both failed", err)
		}
		return nil, WrapError(CodeInconsistent, "could not cancel the booking, action rolled back", err)
	}

	record.Status = models.PaymentStatusCancelled

	s.Logger.Info("payment cancelled",
		zap.String("recordId", record.ID),
		zap.String("bookingId", record.BookingID))
	return record, nil
}

// ListPending returns the admin approval queue.
func (s *DefaultApprovalService) ListPending(ctx context.Context) ([]models.PaymentRecord, error) {
	return s.Payments.ListPending(ctx)
}

// GetByReference looks a reference up without acting on it.
func (s *DefaultApprovalService) GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	return s.resolveReference(ctx, reference)
}

func (s *DefaultApprovalService) resolveReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	record, err := s.Payments.GetByReference(ctx, reference)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return nil, NewError(CodeMissingRecord, "no active payment record matches this reference")
	}
	if errors.Is(err, paymentRepo.ErrAmbiguousReference) {
		return nil, NewError(CodeAmbiguousReference, "reference matches more than one active payment record")
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *DefaultApprovalService) bookingAlreadyConfirmed(ctx context.Context, bookingID string, cause error) bool {
	if !errors.Is(cause, bookingRepo.ErrStatusConflict) {
		return false
	}
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	return err == nil && booking.Status == models.BookingStatusConfirmed
}

func (s *DefaultApprovalService) bookingAlreadyCancelled(ctx context.Context, bookingID string, cause error) bool {
	if !errors.Is(cause, bookingRepo.ErrStatusConflict) {
		return false
	}
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	return err == nil && booking.Status == models.BookingStatusCancelled
}

var _ ApprovalService = (*DefaultApprovalService)(nil)
