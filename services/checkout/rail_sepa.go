package checkout

import (
	"context"
	"errors"
	"time"

	paymentRepo "villamar/database/repository/payment"
	"villamar/models"

	"go.uber.org/zap"
)

// SepaConfig carries the bank account the guest transfers to plus the
// payment window.
type SepaConfig struct {
	IBAN          string
	BIC           string
	AccountHolder string
	BankName      string
	ExpiryDays    int
}

// SepaRail moves no money. It issues transfer instructions: a pending
// payment record with a unique reference and a deadline. Confirmation
// happens later, exclusively through the admin approval path.
type SepaRail struct {
	Store  paymentRepo.PaymentRecordRepository
	Refs   *ReferenceGenerator
	Config SepaConfig
	Logger *zap.Logger
}

const maxReferenceAttempts = 5

func (r *SepaRail) Execute(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutOutcome, error) {
	expiry := time.Now().AddDate(0, 0, r.Config.ExpiryDays)

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := r.Refs.Generate()
		if err != nil {
			return nil, WrapError(CodeRailTransient, "could not generate a payment reference", err)
		}

		record := &models.PaymentRecord{
			BookingID:     session.BookingID,
			Reference:     ref,
			Method:        models.PaymentMethodSepa,
			Amount:        session.Quote.TotalAmount,
			Currency:      session.Quote.Currency,
			CustomerName:  session.Guest.FullName(),
			CustomerEmail: session.Guest.Email,
			IBAN:          r.Config.IBAN,
			BIC:           r.Config.BIC,
			AccountHolder: r.Config.AccountHolder,
			BankName:      r.Config.BankName,
			ExpiresAt:     &expiry,
		}

		err = r.Store.Create(ctx, record)
		if errors.Is(err, paymentRepo.ErrDuplicateReference) {
			continue // fresh code, try again
		}
		if errors.Is(err, paymentRepo.ErrActiveRecordExists) {
			// A retried request already issued instructions for this
			// booking; hand back the existing ones instead of failing.
			existing, getErr := r.Store.GetActiveByBooking(ctx, session.BookingID)
			if getErr != nil {
				return nil, WrapError(CodeRailTransient, "could not load existing transfer instructions", getErr)
			}
			return sepaOutcome(existing), nil
		}
		if err != nil {
			return nil, WrapError(CodeRailTransient, "could not store transfer instructions", err)
		}

		r.Logger.Info("transfer instructions issued",
			zap.String("bookingId", session.BookingID),
			zap.String("reference", record.Reference),
			zap.Time("expiresAt", expiry))
		return sepaOutcome(record), nil
	}

	return nil, NewError(CodeRailTransient, "could not allocate a unique payment reference")
}

func sepaOutcome(record *models.PaymentRecord) *models.CheckoutOutcome {
	var expiry time.Time
	if record.ExpiresAt != nil {
		expiry = *record.ExpiresAt
	}
	return &models.CheckoutOutcome{
		Rail: models.RailSepa,
		Sepa: &models.TransferInstructions{
			RecordID:      record.ID,
			Reference:     record.Reference,
			IBAN:          record.IBAN,
			BIC:           record.BIC,
			AccountHolder: record.AccountHolder,
			BankName:      record.BankName,
			Amount:        record.Amount,
			Currency:      record.Currency,
			ExpiresAt:     expiry,
		},
	}
}
