package paymentRepo

import (
	"context"
	"strings"
	"time"

	"villamar/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var activeStatuses = bson.A{models.PaymentStatusPending, models.PaymentStatusConfirmed}

// Create inserts a new pending payment record. Both uniqueness invariants,
// one active record per booking and one active holder per reference, are
// backed by partial unique indexes and surface as their sentinel errors.
func (r *mongoPaymentRepo) Create(ctx context.Context, record *models.PaymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.Status = models.PaymentStatusPending
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	// Fast path so the common retry gets a clean ErrActiveRecordExists
	// without consuming a write. The partial unique booking index below is
	// what actually enforces the invariant under concurrency.
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"bookingId": record.BookingID,
		"status":    bson.M{"$in": activeStatuses},
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrActiveRecordExists
	}

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyDuplicateKey(err)
		}
		return err
	}
	return nil
}

// classifyDuplicateKey maps a unique-index violation onto the invariant it
// broke, by the offending index's name in the server error.
func classifyDuplicateKey(err error) error {
	if strings.Contains(err.Error(), activeBookingIdx) {
		return ErrActiveRecordExists
	}
	return ErrDuplicateReference
}

// GetByID returns a payment record by its ID.
func (r *mongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetActiveByBooking returns the active record owned by a booking.
func (r *mongoPaymentRepo) GetActiveByBooking(ctx context.Context, bookingID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.coll.FindOne(ctx, bson.M{
		"bookingId": bookingID,
		"status":    bson.M{"$in": activeStatuses},
	}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByReference resolves a reference against active records. The two-doc
// fetch limit is enough to tell "exactly one" from "ambiguous".
func (r *mongoPaymentRepo) GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	filter := bson.M{
		"reference": reference,
		"status":    bson.M{"$in": activeStatuses},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &records[0], nil
	default:
		return nil, ErrAmbiguousReference
	}
}

// UpdateStatusFrom performs a conditional status transition.
func (r *mongoPaymentRepo) UpdateStatusFrom(ctx context.Context, id, from, to, approvedBy string) error {
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if approvedBy != "" {
		set["approvedBy"] = approvedBy
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, cErr := r.coll.CountDocuments(ctx, bson.M{"id": id}); cErr == nil && n == 0 {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// ListPending returns all pending records, newest first, for the admin queue.
func (r *mongoPaymentRepo) ListPending(ctx context.Context) ([]models.PaymentRecord, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"status": models.PaymentStatusPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListOverdue returns pending SEPA records whose payment window has passed.
func (r *mongoPaymentRepo) ListOverdue(ctx context.Context, now time.Time) ([]models.PaymentRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"method":    models.PaymentMethodSepa,
		"status":    models.PaymentStatusPending,
		"expiresAt": bson.M{"$lt": now},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
