package models

import "time"

// LineItem is one row of a price breakdown.
type LineItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"` // Minor currency units
}

// Quote is a price breakdown issued by the quote collaborator for a concrete
// unit, date range and guest count. The checkout flow trusts it only while it
// is fresh and still matches the session's selection.
type Quote struct {
	UnitID      string     `json:"unitId"`
	CheckIn     string     `json:"checkIn"`
	CheckOut    string     `json:"checkOut"`
	Guests      int        `json:"guests"`
	Nights      int        `json:"nights"`
	TotalAmount int64      `json:"totalAmount"`
	Currency    string     `json:"currency"`
	LineItems   []LineItem `json:"lineItems"`
	IssuedAt    time.Time  `json:"issuedAt"`
}

// Matches reports whether the quote was issued for exactly this selection.
func (q *Quote) Matches(unitID, checkIn, checkOut string, guests int) bool {
	return q.UnitID == unitID &&
		q.CheckIn == checkIn &&
		q.CheckOut == checkOut &&
		q.Guests == guests
}

// Stale reports whether the quote is older than the allowed window.
func (q *Quote) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(q.IssuedAt) > maxAge
}
