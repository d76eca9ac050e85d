package notify

import "context"

// Lifecycle events forwarded to the automation collaborator.
const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventPaymentReceived  = "payment_received"
	EventPaymentExpired   = "payment_expired"
)

// Email template kinds. Rendering and delivery belong to the hosted email
// collaborator; this core only picks the kind and supplies data.
type TemplateKind string

const (
	TemplateCardReceipt          TemplateKind = "card_receipt"
	TemplateTransferInstructions TemplateKind = "transfer_instructions"
	TemplateArrivalInstructions  TemplateKind = "arrival_instructions"
	TemplatePaymentApproved      TemplateKind = "payment_approved"
	TemplateBookingCancelled     TemplateKind = "booking_cancelled"
)

// DispatchResult records the outcome of a fire-and-forget dispatch. Failures
// are never propagated as checkout failures, but they are kept on record so a
// later reconciliation job can act on them.
type DispatchResult struct {
	Dispatched bool   `json:"dispatched"`
	Error      string `json:"error,omitempty"`
}

// Dispatched is the success result.
func Dispatched() DispatchResult {
	return DispatchResult{Dispatched: true}
}

// Failed wraps a dispatch error into a non-fatal result.
func Failed(err error) DispatchResult {
	return DispatchResult{Dispatched: false, Error: err.Error()}
}

// AutomationDispatcher notifies the external automation collaborator of a
// booking lifecycle event.
type AutomationDispatcher interface {
	Trigger(ctx context.Context, event, bookingID string, metadata map[string]string) DispatchResult
}

// EmailDispatcher hands a template kind plus data to the hosted email
// service.
type EmailDispatcher interface {
	Send(ctx context.Context, kind TemplateKind, bookingID, recipient string, data map[string]string) DispatchResult
}
