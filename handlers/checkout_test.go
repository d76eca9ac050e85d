package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"villamar/models"
	"villamar/services/checkout"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCheckout returns canned results so the handler's binding and error
// mapping can be tested without the real orchestrator.
type stubCheckout struct {
	session *models.CheckoutSession
	err     error
	nonce   string
}

func (s *stubCheckout) Start(_ context.Context, req checkout.StartCheckoutRequest) (*models.CheckoutSession, error) {
	s.nonce = req.Nonce
	return s.session, s.err
}

func (s *stubCheckout) SubmitDetails(_ context.Context, _ string, _ models.GuestDetails, _ string) (*models.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckout) ExecutePayment(_ context.Context, _ string) (*models.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckout) Back(_ context.Context, _ string) (*models.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckout) Get(_ context.Context, _ string) (*models.CheckoutSession, error) {
	return s.session, s.err
}

func checkoutRouter(stub *stubCheckout) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCheckoutHandler(stub, zap.NewNop())
	co := r.Group("/api/checkout")
	co.POST("/session", h.StartCheckout)
	co.GET("/session/:sessionID", h.GetSession)
	co.PUT("/session/:sessionID/details", h.SubmitDetails)
	co.POST("/session/:sessionID/pay", h.ExecutePayment)
	co.POST("/session/:sessionID/back", h.Back)
	return r
}

func TestStartCheckoutMintsNonceWhenMissing(t *testing.T) {
	stub := &stubCheckout{session: &models.CheckoutSession{SessionID: "sess-1", State: models.CheckoutStateCollectingDetails}}
	router := checkoutRouter(stub)

	body := `{"unitId":"villa-mar-2","checkIn":"2026-09-10","checkOut":"2026-09-13","guests":4}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, stub.nonce)
	assert.Contains(t, w.Body.String(), "sess-1")
}

func TestStartCheckoutKeepsClientNonce(t *testing.T) {
	stub := &stubCheckout{session: &models.CheckoutSession{SessionID: "sess-1"}}
	router := checkoutRouter(stub)

	body := `{"unitId":"villa-mar-2","checkIn":"2026-09-10","checkOut":"2026-09-13","guests":4,"nonce":"client-nonce-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-nonce-1", stub.nonce)
}

func TestCheckoutErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", checkout.NewError(checkout.CodeValidation, "bad input"), http.StatusBadRequest},
		{"quote mismatch", checkout.NewError(checkout.CodeQuoteMismatch, "stale quote"), http.StatusConflict},
		{"session not found", checkout.NewError(checkout.CodeSessionNotFound, "gone"), http.StatusNotFound},
		{"session conflict", checkout.NewError(checkout.CodeSessionConflict, "busy"), http.StatusConflict},
		{"session state", checkout.NewError(checkout.CodeSessionState, "too late"), http.StatusConflict},
		{"declined", checkout.NewError(checkout.CodeRailDeclined, "declined"), http.StatusPaymentRequired},
		{"transient", checkout.NewError(checkout.CodeRailTransient, "provider down"), http.StatusServiceUnavailable},
		{"partial failure", checkout.NewError(checkout.CodePartialFailure, "record update failed"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := checkoutRouter(&stubCheckout{err: tc.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/checkout/session/sess-1/pay", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSubmitDetailsRejectsMalformedBody(t *testing.T) {
	router := checkoutRouter(&stubCheckout{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/checkout/session/sess-1/details", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
