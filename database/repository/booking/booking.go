package bookingRepo

import (
	"context"
	"errors"

	"villamar/database"
	"villamar/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors surfaced by the repository.
var (
	ErrNotFound       = errors.New("booking not found")
	ErrStatusConflict = errors.New("booking status precondition failed")
)

// BookingRepository defines the interface for booking data access.
type BookingRepository interface {
	// CreateIdempotent inserts the booking unless one with the same
	// idempotency key already exists. It returns the stored booking and
	// whether this call created it.
	CreateIdempotent(ctx context.Context, booking *models.Booking) (*models.Booking, bool, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateStatusFrom transitions status only when the current status
	// matches from; otherwise it returns ErrStatusConflict.
	UpdateStatusFrom(ctx context.Context, id, from, to string) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by MongoDB.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("villamar")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
