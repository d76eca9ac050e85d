package models

import "time"

// Checkout session states. A session only ever moves forward through these;
// the single sanctioned regression is the explicit back action, which returns
// to collecting_details and discards rail artifacts.
const (
	CheckoutStateCollectingDetails = "collecting_details"
	CheckoutStateAwaitingPayment   = "awaiting_payment"
	CheckoutStateConfirming        = "confirming"
	CheckoutStateDone              = "done"
)

// Payment rails.
const (
	RailCard = "card"
	RailSepa = "sepa"
	RailCash = "cash"
)

// CheckoutSession holds one guest's in-flight checkout between requests. It
// lives only in the session cache and is dropped (or expires) once the
// checkout finishes.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	UnitID    string `json:"unitId"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Guests    int    `json:"guests"`

	Quote *Quote        `json:"quote,omitempty"`
	Guest *GuestDetails `json:"guest,omitempty"`
	Rail  string        `json:"rail,omitempty"`
	State string        `json:"state"`

	// Nonce scopes the booking-create idempotency key to this checkout
	// attempt. Client-generated when the client supplies one.
	Nonce string `json:"nonce"`

	BookingID        string `json:"bookingId,omitempty"`
	CardIntentID     string `json:"cardIntentId,omitempty"`
	CardClientSecret string `json:"cardClientSecret,omitempty"`

	Outcome *CheckoutOutcome `json:"outcome,omitempty"`
	Warning string           `json:"warning,omitempty"` // Set only on a partial failure after rail success

	CreatedAt time.Time `json:"createdAt"`
}

// CheckoutOutcome is the normalized result of a successful rail execution.
// Exactly one of the variant arms is set, matching Rail; each arm carries
// only its own fields.
type CheckoutOutcome struct {
	Rail string                `json:"rail"`
	Card *CardCapture          `json:"card,omitempty"`
	Sepa *TransferInstructions `json:"sepa,omitempty"`
	Cash *ArrivalInstructions  `json:"cash,omitempty"`
}

// CardCapture is the card rail's synchronous success result.
type CardCapture struct {
	IntentID string `json:"intentId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// TransferInstructions is the SEPA rail's result: instructions issued, money
// not yet moved.
type TransferInstructions struct {
	RecordID      string    `json:"recordId"`
	Reference     string    `json:"reference"`
	IBAN          string    `json:"iban"`
	BIC           string    `json:"bic"`
	AccountHolder string    `json:"accountHolder"`
	BankName      string    `json:"bankName"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ArrivalInstructions is the cash rail's result.
type ArrivalInstructions struct {
	RecordID        string    `json:"recordId"`
	Reference       string    `json:"reference"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentLocation string    `json:"paymentLocation"`
	ExpectedCheckIn time.Time `json:"expectedCheckIn"`
}

// SettlesImmediately reports whether this outcome means the booking is paid
// now (card capture) rather than awaiting a deferred settlement.
func (o *CheckoutOutcome) SettlesImmediately() bool {
	return o.Rail == RailCard
}

// Reference returns the rail-level reference used for reconciliation: the
// Stripe intent id for cards, the payment reference code otherwise.
func (o *CheckoutOutcome) Reference() string {
	switch o.Rail {
	case RailCard:
		if o.Card != nil {
			return o.Card.IntentID
		}
	case RailSepa:
		if o.Sepa != nil {
			return o.Sepa.Reference
		}
	case RailCash:
		if o.Cash != nil {
			return o.Cash.Reference
		}
	}
	return ""
}
