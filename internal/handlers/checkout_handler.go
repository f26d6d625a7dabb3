package handlers

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

const (
	Banner = "Servidor de integración con Mercado Pago funcionando"

	preferenceErrorMessage = "Error al crear la preferencia de pago"
	maxWebhookBody         = 1 << 20
)

type PreferenceCreator interface {
	CreatePreference(ctx context.Context, order models.OrderRequest) (*models.PreferenceResult, error)
}

type NotificationSubmitter interface {
	Submit(ctx context.Context, body []byte, query url.Values)
}

type CheckoutHandler struct {
	preferences PreferenceCreator
	reconciler  NotificationSubmitter
}

func NewCheckoutHandler(preferences PreferenceCreator, reconciler NotificationSubmitter) *CheckoutHandler {
	return &CheckoutHandler{
		preferences: preferences,
		reconciler:  reconciler,
	}
}

// POST /create-preference
func (h *CheckoutHandler) CreatePreference(c *gin.Context) {
	var order models.OrderRequest
	if err := c.ShouldBindJSON(&order); err != nil {
		telemetry.Logger.Error("Error decoding order request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": preferenceErrorMessage})
		return
	}

	result, err := h.preferences.CreatePreference(c.Request.Context(), order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": preferenceErrorMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"redirectUrl":  result.RedirectURL,
		"preferenceId": result.PreferenceID,
	})
}

// Webhook acknowledges the delivery before anything else happens to it. The
// body is handed to the reconciler only after the response is flushed.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		telemetry.Logger.Warn("Error reading webhook body", zap.Error(err))
	}

	c.String(http.StatusOK, "OK")
	c.Writer.Flush()

	h.reconciler.Submit(c.Request.Context(), body, c.Request.URL.Query())
}

// GET /
func (h *CheckoutHandler) Banner(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}
