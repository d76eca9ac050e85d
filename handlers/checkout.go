package handlers

import (
	"net/http"

	"villamar/models"
	"villamar/services/checkout"
	"villamar/utils"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v3"
	"go.uber.org/zap"
)

// CheckoutHandler exposes the checkout session lifecycle over HTTP.
type CheckoutHandler struct {
	Svc    checkout.CheckoutService
	Logger *zap.Logger
}

func NewCheckoutHandler(svc checkout.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{Svc: svc, Logger: logger}
}

// StartCheckout opens a new session for a unit and date range.
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	var req checkout.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	// The nonce should come from the client so its retries share it; we
	// only mint one when the client sent none.
	if req.Nonce == "" {
		req.Nonce = shortuuid.New()
	}

	session, err := h.Svc.Start(c.Request.Context(), req)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SubmitDetails validates the guest form and moves the session to
// awaiting_payment.
func (h *CheckoutHandler) SubmitDetails(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input struct {
		Guest models.GuestDetails `json:"guest"`
		Rail  string              `json:"rail"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Svc.SubmitDetails(c.Request.Context(), sessionID, input.Guest, input.Rail)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ExecutePayment runs the selected rail.
func (h *CheckoutHandler) ExecutePayment(c *gin.Context) {
	sessionID := c.Param("sessionID")

	session, err := h.Svc.ExecutePayment(c.Request.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Back discards rail artifacts and returns to detail entry.
func (h *CheckoutHandler) Back(c *gin.Context) {
	sessionID := c.Param("sessionID")

	session, err := h.Svc.Back(c.Request.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSession returns the current session state.
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionID")

	session, err := h.Svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// respondCheckoutError maps the checkout error taxonomy onto HTTP statuses.
func (h *CheckoutHandler) respondCheckoutError(c *gin.Context, err error) {
	switch checkout.ErrCode(err) {
	case checkout.CodeValidation:
		utils.JSONError(c, http.StatusBadRequest, "validation failed", err.Error())
	case checkout.CodeQuoteMismatch:
		utils.JSONError(c, http.StatusConflict, "quote must be refreshed", err.Error())
	case checkout.CodeSessionNotFound:
		utils.JSONError(c, http.StatusNotFound, "checkout session not found", err.Error())
	case checkout.CodeSessionConflict, checkout.CodeSessionState:
		utils.JSONError(c, http.StatusConflict, "checkout state conflict", err.Error())
	case checkout.CodeRailDeclined:
		utils.JSONError(c, http.StatusPaymentRequired, "payment declined", err.Error())
	case checkout.CodeRailTransient:
		utils.JSONError(c, http.StatusServiceUnavailable, "payment provider unavailable, please retry", err.Error())
	case checkout.CodePartialFailure:
		utils.JSONError(c, http.StatusInternalServerError, "payment succeeded but confirmation failed, contact support", err.Error())
	default:
		h.Logger.Error("unexpected checkout error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", "")
	}
}
