package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"villamar/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIdempotent upserts on the idempotency key so a retried create call
// for the same checkout attempt lands on the already-stored booking instead
// of inserting a second one.
func (r *mongoBookingRepo) CreateIdempotent(ctx context.Context, booking *models.Booking) (*models.Booking, bool, error) {
	if booking.IdempotencyKey == "" {
		return nil, false, fmt.Errorf("booking is missing an idempotency key")
	}
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()

	filter := bson.M{"idempotencyKey": booking.IdempotencyKey}
	update := bson.M{"$setOnInsert": booking}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	created := stored.ID == booking.ID
	return &stored, created, nil
}

// GetByID returns a booking by its ID.
func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatusFrom performs a conditional status transition. The filter
// carries the expected current status so a lost race surfaces as
// ErrStatusConflict instead of silently overwriting.
func (r *mongoBookingRepo) UpdateStatusFrom(ctx context.Context, id, from, to string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing booking from a status mismatch.
		if n, cErr := r.coll.CountDocuments(ctx, bson.M{"id": id}); cErr == nil && n == 0 {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}
