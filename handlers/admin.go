package handlers

import (
	"net/http"

	"villamar/services/admin"
	"villamar/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminPaymentHandler exposes the approval queue for pending SEPA and cash
// payments.
type AdminPaymentHandler struct {
	Svc    admin.ApprovalService
	Logger *zap.Logger
}

func NewAdminPaymentHandler(svc admin.ApprovalService, logger *zap.Logger) *AdminPaymentHandler {
	return &AdminPaymentHandler{Svc: svc, Logger: logger}
}

// ListPending returns the approval queue.
func (h *AdminPaymentHandler) ListPending(c *gin.Context) {
	records, err := h.Svc.ListPending(c.Request.Context())
	if err != nil {
		h.respondApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": records})
}

// Approve confirms a pending payment record and its booking.
func (h *AdminPaymentHandler) Approve(c *gin.Context) {
	record, err := h.Svc.Approve(c.Request.Context(), c.Param("recordID"), c.GetString("adminID"))
	if err != nil {
		h.respondApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Cancel voids a pending payment record and cancels its booking.
func (h *AdminPaymentHandler) Cancel(c *gin.Context) {
	record, err := h.Svc.Cancel(c.Request.Context(), c.Param("recordID"))
	if err != nil {
		h.respondApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetByReference resolves a transfer memo reference to its record.
func (h *AdminPaymentHandler) GetByReference(c *gin.Context) {
	record, err := h.Svc.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.respondApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ApproveByReference approves the single active record matching a reference.
func (h *AdminPaymentHandler) ApproveByReference(c *gin.Context) {
	record, err := h.Svc.ApproveByReference(c.Request.Context(), c.Param("reference"), c.GetString("adminID"))
	if err != nil {
		h.respondApprovalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AdminPaymentHandler) respondApprovalError(c *gin.Context, err error) {
	switch admin.ErrCode(err) {
	case admin.CodeMissingRecord:
		utils.JSONError(c, http.StatusNotFound, "payment record not found", err.Error())
	case admin.CodeAmbiguousReference:
		utils.JSONError(c, http.StatusConflict, "ambiguous reference", err.Error())
	case admin.CodeExpired:
		utils.JSONError(c, http.StatusGone, "payment window expired", err.Error())
	case admin.CodeNotPending, admin.CodeAlreadyCancelled:
		utils.JSONError(c, http.StatusConflict, "payment record state conflict", err.Error())
	case admin.CodeInconsistent:
		utils.JSONError(c, http.StatusInternalServerError, "approval rolled back", err.Error())
	default:
		h.Logger.Error("unexpected approval error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", "")
	}
}
