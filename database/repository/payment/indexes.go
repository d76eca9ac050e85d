package paymentRepo

import (
	"context"
	"time"

	"villamar/database"
	"villamar/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Names of the partial unique indexes. Create distinguishes which invariant
// a duplicate-key error violated by the index name in the error.
const (
	activeReferenceIdx = "activeReferenceIdx"
	activeBookingIdx   = "activeBookingIdx"
)

// EnsurePaymentIndexes creates the payment record indexes. The partial unique
// indexes keep references and booking ownership unique among active records
// while letting cancelled records free both for reuse.
func EnsurePaymentIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coll := database.MongoClient.Database("villamar").Collection("payment_records")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().
				SetName(activeReferenceIdx).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{models.PaymentStatusPending, models.PaymentStatusConfirmed}},
				}),
		},
		{
			Keys: bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().
				SetName(activeBookingIdx).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{models.PaymentStatusPending, models.PaymentStatusConfirmed}},
				}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
		},
	})
	return err
}
