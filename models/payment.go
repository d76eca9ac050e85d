package models

import "time"

// Payment methods that produce a PaymentRecord. Card captures settle through
// Stripe and never create one.
const (
	PaymentMethodSepa = "sepa"
	PaymentMethodCash = "cash"
)

// PaymentRecord status values. SEPA records additionally become logically
// expired once now passes ExpiresAt while the stored status is still pending;
// that state is computed at read time, never written.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusCancelled = "cancelled"
)

// PaymentRecord tracks a deferred payment (bank transfer or cash on arrival)
// owned by a booking. Status moves out of pending exclusively through an
// admin action or the expiry sweep.
type PaymentRecord struct {
	ID            string `bson:"id" json:"id"`
	BookingID     string `bson:"bookingId" json:"bookingId"`
	Reference     string `bson:"reference" json:"reference"` // Human-readable code for transfer memos
	Method        string `bson:"method" json:"method"`       // sepa | cash
	Amount        int64  `bson:"amount" json:"amount"`       // Minor currency units
	Currency      string `bson:"currency" json:"currency"`
	CustomerName  string `bson:"customerName" json:"customerName"`
	CustomerEmail string `bson:"customerEmail" json:"customerEmail"`
	Status        string `bson:"status" json:"status"` // pending | confirmed | cancelled

	// SEPA-specific instruction fields.
	IBAN          string     `bson:"iban,omitempty" json:"iban,omitempty"`
	BIC           string     `bson:"bic,omitempty" json:"bic,omitempty"`
	AccountHolder string     `bson:"accountHolder,omitempty" json:"accountHolder,omitempty"`
	BankName      string     `bson:"bankName,omitempty" json:"bankName,omitempty"`
	ExpiresAt     *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`

	// Cash-specific fields.
	ExpectedCheckIn *time.Time `bson:"expectedCheckIn,omitempty" json:"expectedCheckIn,omitempty"`
	PaymentLocation string     `bson:"paymentLocation,omitempty" json:"paymentLocation,omitempty"`

	ApprovedBy string    `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"` // Admin identity that confirmed the record
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether a still-pending SEPA record's payment window has
// passed at the given instant.
func (p *PaymentRecord) Expired(now time.Time) bool {
	return p.Method == PaymentMethodSepa &&
		p.Status == PaymentStatusPending &&
		p.ExpiresAt != nil &&
		now.After(*p.ExpiresAt)
}

// Active reports whether the record still participates in the
// reference-uniqueness and one-per-booking invariants.
func (p *PaymentRecord) Active() bool {
	return p.Status != PaymentStatusCancelled
}
