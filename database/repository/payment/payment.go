package paymentRepo

import (
	"context"
	"errors"
	"time"

	"villamar/database"
	"villamar/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors surfaced by the payment record store.
var (
	ErrNotFound           = errors.New("payment record not found")
	ErrAmbiguousReference = errors.New("reference matches more than one active payment record")
	ErrDuplicateReference = errors.New("reference already in use by an active payment record")
	ErrActiveRecordExists = errors.New("booking already has an active payment record")
	ErrStatusConflict     = errors.New("payment record status precondition failed")
)

// PaymentRecordRepository is the persistence contract for SEPA and
// cash-on-arrival payment records.
type PaymentRecordRepository interface {
	// Create inserts a new pending record. It fails with
	// ErrActiveRecordExists when the booking already owns an active record
	// and ErrDuplicateReference when the reference collides with another
	// active record.
	Create(ctx context.Context, record *models.PaymentRecord) error
	GetByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	// GetByReference resolves a reference code against active records only.
	// Zero matches yield ErrNotFound, more than one ErrAmbiguousReference.
	GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
	// GetActiveByBooking returns the booking's single active record, or
	// ErrNotFound when none exists.
	GetActiveByBooking(ctx context.Context, bookingID string) (*models.PaymentRecord, error)
	// UpdateStatusFrom transitions status only from the expected current
	// status; approvedBy is recorded on confirmation transitions.
	UpdateStatusFrom(ctx context.Context, id, from, to, approvedBy string) error
	ListPending(ctx context.Context) ([]models.PaymentRecord, error)
	// ListOverdue returns pending SEPA records whose expiry lies before now.
	ListOverdue(ctx context.Context, now time.Time) ([]models.PaymentRecord, error)
}

type mongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo returns a PaymentRecordRepository backed by MongoDB.
func NewMongoPaymentRepo() PaymentRecordRepository {
	db := database.MongoClient.Database("villamar")
	return &mongoPaymentRepo{
		coll: db.Collection("payment_records"),
	}
}
