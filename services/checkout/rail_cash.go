package checkout

import (
	"context"
	"errors"
	"time"

	paymentRepo "villamar/database/repository/payment"
	"villamar/models"

	"go.uber.org/zap"
)

// CashRail records a pay-at-arrival commitment. Like SEPA it issues a
// pending record that only an admin can confirm, at or after check-in.
type CashRail struct {
	Store           paymentRepo.PaymentRecordRepository
	Refs            *ReferenceGenerator
	PaymentLocation string
	Logger          *zap.Logger
}

// checkInHour is when the guest is expected at the desk on arrival day.
const checkInHour = 15

func (r *CashRail) Execute(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutOutcome, error) {
	expected := expectedCheckIn(session.CheckIn)

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := r.Refs.Generate()
		if err != nil {
			return nil, WrapError(CodeRailTransient, "could not generate a payment reference", err)
		}

		record := &models.PaymentRecord{
			BookingID:       session.BookingID,
			Reference:       ref,
			Method:          models.PaymentMethodCash,
			Amount:          session.Quote.TotalAmount,
			Currency:        session.Quote.Currency,
			CustomerName:    session.Guest.FullName(),
			CustomerEmail:   session.Guest.Email,
			ExpectedCheckIn: &expected,
			PaymentLocation: r.PaymentLocation,
		}

		err = r.Store.Create(ctx, record)
		if errors.Is(err, paymentRepo.ErrDuplicateReference) {
			continue
		}
		if errors.Is(err, paymentRepo.ErrActiveRecordExists) {
			existing, getErr := r.Store.GetActiveByBooking(ctx, session.BookingID)
			if getErr != nil {
				return nil, WrapError(CodeRailTransient, "could not load existing arrival instructions", getErr)
			}
			return cashOutcome(existing), nil
		}
		if err != nil {
			return nil, WrapError(CodeRailTransient, "could not store arrival instructions", err)
		}

		r.Logger.Info("arrival payment recorded",
			zap.String("bookingId", session.BookingID),
			zap.String("reference", record.Reference))
		return cashOutcome(record), nil
	}

	return nil, NewError(CodeRailTransient, "could not allocate a unique payment reference")
}

// expectedCheckIn pins the arrival payment to check-in day at the desk's
// standard hour. A date that fails to parse falls back to the raw day.
func expectedCheckIn(checkIn string) time.Time {
	day, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Now()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), checkInHour, 0, 0, 0, time.UTC)
}

func cashOutcome(record *models.PaymentRecord) *models.CheckoutOutcome {
	var expected time.Time
	if record.ExpectedCheckIn != nil {
		expected = *record.ExpectedCheckIn
	}
	return &models.CheckoutOutcome{
		Rail: models.RailCash,
		Cash: &models.ArrivalInstructions{
			RecordID:        record.ID,
			Reference:       record.Reference,
			Amount:          record.Amount,
			Currency:        record.Currency,
			PaymentLocation: record.PaymentLocation,
			ExpectedCheckIn: expected,
		},
	}
}
