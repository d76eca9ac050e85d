package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	bookingRepo "villamar/database/repository/booking"
	paymentRepo "villamar/database/repository/payment"
	"villamar/models"
	"villamar/services/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory collaborators. They honor the same contracts as the Redis and
// Mongo implementations so the orchestrator can be driven end to end without
// a running backend.

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.CheckoutSession
	locks    map[string]bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]models.CheckoutSession),
		locks:    make(map[string]bool),
	}
}

func (s *memSessionStore) Put(_ context.Context, session *models.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	return nil
}

func (s *memSessionStore) Get(_ context.Context, sessionID string) (*models.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, NewError(CodeSessionNotFound, "checkout session not found or expired")
	}
	copied := session
	return &copied, nil
}

func (s *memSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *memSessionStore) AcquireLock(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[sessionID] {
		return false, nil
	}
	s.locks[sessionID] = true
	return true, nil
}

func (s *memSessionStore) ReleaseLock(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, sessionID)
	return nil
}

type fakeQuotes struct {
	quote *models.Quote
	err   error
	calls int
}

func (f *fakeQuotes) GetQuote(_ context.Context, unitID, checkIn, checkOut string, guests int) (*models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.quote != nil {
		copied := *f.quote
		return &copied, nil
	}
	return &models.Quote{
		UnitID:      unitID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      guests,
		Nights:      3,
		TotalAmount: 54000,
		Currency:    "EUR",
		IssuedAt:    time.Now(),
	}, nil
}

type memBookingRepo struct {
	mu        sync.Mutex
	byID      map[string]models.Booking
	byKey     map[string]string
	created   int
	updateErr error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		byID:  make(map[string]models.Booking),
		byKey: make(map[string]string),
	}
}

func (r *memBookingRepo) CreateIdempotent(_ context.Context, booking *models.Booking) (*models.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[booking.IdempotencyKey]; ok {
		stored := r.byID[id]
		return &stored, false, nil
	}
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	r.byID[booking.ID] = *booking
	r.byKey[booking.IdempotencyKey] = booking.ID
	r.created++
	stored := *booking
	return &stored, true, nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.byID[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	copied := booking
	return &copied, nil
}

func (r *memBookingRepo) UpdateStatusFrom(_ context.Context, id, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	booking, ok := r.byID[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if booking.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	booking.Status = to
	r.byID[id] = booking
	return nil
}

func (r *memBookingRepo) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Status
}

type memPaymentRepo struct {
	mu      sync.Mutex
	records map[string]models.PaymentRecord
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{records: make(map[string]models.PaymentRecord)}
}

func (r *memPaymentRepo) Create(_ context.Context, record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if !existing.Active() {
			continue
		}
		if existing.BookingID == record.BookingID {
			return paymentRepo.ErrActiveRecordExists
		}
		if existing.Reference == record.Reference {
			return paymentRepo.ErrDuplicateReference
		}
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.Status = models.PaymentStatusPending
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	r.records[record.ID] = *record
	return nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, id string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, paymentRepo.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (r *memPaymentRepo) GetByReference(_ context.Context, reference string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []models.PaymentRecord
	for _, record := range r.records {
		if record.Active() && record.Reference == reference {
			matches = append(matches, record)
		}
	}
	switch len(matches) {
	case 0:
		return nil, paymentRepo.ErrNotFound
	case 1:
		copied := matches[0]
		return &copied, nil
	default:
		return nil, paymentRepo.ErrAmbiguousReference
	}
}

func (r *memPaymentRepo) GetActiveByBooking(_ context.Context, bookingID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.Active() && record.BookingID == bookingID {
			copied := record
			return &copied, nil
		}
	}
	return nil, paymentRepo.ErrNotFound
}

func (r *memPaymentRepo) UpdateStatusFrom(_ context.Context, id, from, to, approvedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return paymentRepo.ErrNotFound
	}
	if record.Status != from {
		return paymentRepo.ErrStatusConflict
	}
	record.Status = to
	record.UpdatedAt = time.Now()
	if approvedBy != "" {
		record.ApprovedBy = approvedBy
	}
	r.records[id] = record
	return nil
}

func (r *memPaymentRepo) ListPending(_ context.Context) ([]models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []models.PaymentRecord
	for _, record := range r.records {
		if record.Status == models.PaymentStatusPending {
			pending = append(pending, record)
		}
	}
	return pending, nil
}

func (r *memPaymentRepo) ListOverdue(_ context.Context, now time.Time) ([]models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var overdue []models.PaymentRecord
	for _, record := range r.records {
		if record.Expired(now) {
			overdue = append(overdue, record)
		}
	}
	return overdue, nil
}

func (r *memPaymentRepo) activeForBooking(bookingID string) []models.PaymentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []models.PaymentRecord
	for _, record := range r.records {
		if record.Active() && record.BookingID == bookingID {
			active = append(active, record)
		}
	}
	return active
}

type fakeCards struct {
	mu             sync.Mutex
	createErr      error
	verifyCapture  *models.CardCapture
	verifyErr      error
	createCalls    int
	verifyCalls    int
	cancelled      []string
	idempotencyKey string
}

func (f *fakeCards) CreateIntent(_ context.Context, _ string, _ int64, _, _, idempotencyKey string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.idempotencyKey = idempotencyKey
	if f.createErr != nil {
		return "", "", f.createErr
	}
	return "pi_test_123", "secret_test_123", nil
}

func (f *fakeCards) VerifyIntent(_ context.Context, intentID string) (*models.CardCapture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyCapture != nil {
		copied := *f.verifyCapture
		return &copied, nil
	}
	return &models.CardCapture{IntentID: intentID, Amount: 54000, Currency: "EUR"}, nil
}

func (f *fakeCards) CancelIntent(_ context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, intentID)
	return nil
}

type fakeAutomation struct {
	mu     sync.Mutex
	events []string
	err    error
	panics bool
}

func (f *fakeAutomation) Trigger(_ context.Context, event, _ string, _ map[string]string) notify.DispatchResult {
	if f.panics {
		panic("automation collaborator down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return notify.Failed(f.err)
	}
	f.events = append(f.events, event)
	return notify.Dispatched()
}

type fakeEmail struct {
	mu     sync.Mutex
	kinds  []notify.TemplateKind
	err    error
	panics bool
}

func (f *fakeEmail) Send(_ context.Context, kind notify.TemplateKind, _, _ string, _ map[string]string) notify.DispatchResult {
	if f.panics {
		panic("email collaborator down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return notify.Failed(f.err)
	}
	f.kinds = append(f.kinds, kind)
	return notify.Dispatched()
}

// testHarness bundles a fully wired DefaultCheckoutService with hooks into
// every fake collaborator.
type testHarness struct {
	svc        *DefaultCheckoutService
	sessions   *memSessionStore
	quotes     *fakeQuotes
	bookings   *memBookingRepo
	payments   *memPaymentRepo
	cards      *fakeCards
	automation *fakeAutomation
	email      *fakeEmail
}

func newTestHarness() *testHarness {
	h := &testHarness{
		sessions:   newMemSessionStore(),
		quotes:     &fakeQuotes{},
		bookings:   newMemBookingRepo(),
		payments:   newMemPaymentRepo(),
		cards:      &fakeCards{},
		automation: &fakeAutomation{},
		email:      &fakeEmail{},
	}
	logger := zap.NewNop()
	refs := NewReferenceGenerator()
	sepaCfg := SepaConfig{
		IBAN:          "ES9121000418450200051332",
		BIC:           "CAIXESBBXXX",
		AccountHolder: "Villa Mar SL",
		BankName:      "CaixaBank",
		ExpiryDays:    7,
	}
	h.svc = &DefaultCheckoutService{
		Sessions: h.sessions,
		Quotes:   h.quotes,
		Bookings: h.bookings,
		Payments: h.payments,
		Cards:    h.cards,
		Rails: map[string]PaymentRail{
			models.RailCard: &CardRail{Processor: h.cards},
			models.RailSepa: &SepaRail{Store: h.payments, Refs: refs, Config: sepaCfg, Logger: logger},
			models.RailCash: &CashRail{Store: h.payments, Refs: refs, PaymentLocation: "reception desk", Logger: logger},
		},
		Pipeline: &SideEffectPipeline{
			Bookings:   h.bookings,
			Automation: h.automation,
			Email:      h.email,
			Logger:     logger,
		},
		QuoteMaxAge: 30 * time.Minute,
		Logger:      logger,
	}
	return h
}

func testStartRequest() StartCheckoutRequest {
	return StartCheckoutRequest{
		UnitID:   "villa-mar-2",
		CheckIn:  "2026-09-10",
		CheckOut: "2026-09-13",
		Guests:   4,
		Nonce:    strings.ToLower(uuid.New().String()),
	}
}

func testGuestDetails() models.GuestDetails {
	return models.GuestDetails{
		FirstName: "Ana",
		LastName:  "Moreno",
		Email:     "ana.moreno@example.com",
		Phone:     "+34600111222",
		Country:   "ES",
	}
}
