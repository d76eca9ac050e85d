package models

import "time"

// Booking status values.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking represents one checkout attempt's booking record. It is created in
// "pending" status before any payment rail runs and is never deleted by the
// guest-facing flow.
type Booking struct {
	ID              string    `bson:"id" json:"id"`                             // Unique booking identifier (UUID)
	UnitID          string    `bson:"unitId" json:"unitId"`                     // Rental unit reference
	CheckIn         string    `bson:"checkIn" json:"checkIn"`                   // Check-in date in "YYYY-MM-DD" format
	CheckOut        string    `bson:"checkOut" json:"checkOut"`                 // Check-out date in "YYYY-MM-DD" format
	Guests          int       `bson:"guests" json:"guests"`                     // Guest count
	AmountTotal     int64     `bson:"amountTotal" json:"amountTotal"`           // Total in minor currency units (cents)
	Currency        string    `bson:"currency" json:"currency"`                 // ISO 4217 code, e.g. "EUR"
	Status          string    `bson:"status" json:"status"`                     // pending | confirmed | cancelled | completed
	CustomerName    string    `bson:"customerName" json:"customerName"`         // "First Last"
	CustomerEmail   string    `bson:"customerEmail" json:"customerEmail"`       //
	CustomerPhone   string    `bson:"customerPhone" json:"customerPhone"`       //
	CustomerCountry string    `bson:"customerCountry" json:"customerCountry"`   //
	SpecialRequests string    `bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`
	IdempotencyKey  string    `bson:"idempotencyKey" json:"-"`                  // Dedupes retried create calls for one attempt
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// GuestDetails is the contact form a guest fills before payment.
type GuestDetails struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// FullName joins first and last name the way the booking record stores it.
func (g GuestDetails) FullName() string {
	return g.FirstName + " " + g.LastName
}
