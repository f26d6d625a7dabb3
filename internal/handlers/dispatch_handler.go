package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/interfaces"
	"github.com/akylbek/payment-system/checkout-service/internal/repository"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

type DispatchHandler struct {
	ledger interfaces.DispatchLedger
}

func NewDispatchHandler(ledger interfaces.DispatchLedger) *DispatchHandler {
	return &DispatchHandler{ledger: ledger}
}

// GET /fulfillments/:paymentId
func (h *DispatchHandler) GetDispatch(c *gin.Context) {
	paymentID := c.Param("paymentId")

	record, err := h.ledger.Get(c.Request.Context(), paymentID)
	if errors.Is(err, repository.ErrDispatchNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fulfillment not found"})
		return
	}

	if err != nil {
		telemetry.Logger.Error("Error fetching dispatch record",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch fulfillment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":    record.PaymentID,
		"email":         record.Email,
		"status":        record.Status,
		"dispatched_at": record.DispatchedAt,
	})
}
