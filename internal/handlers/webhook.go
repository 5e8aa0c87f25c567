package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/metrics"
	"homease-backend/internal/payments"
	"homease-backend/internal/services"
)

// maxWebhookBodyBytes matches Stripe's documented payload ceiling.
const maxWebhookBodyBytes = 65536

// StripeWebhookHandler receives signed payment events. Answers are plain
// text on failure so the Stripe dashboard shows the reason.
type StripeWebhookHandler struct {
	webhooks WebhookAPI
	logger   *zap.Logger
}

func NewStripeWebhookHandler(webhooks WebhookAPI, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhooks: webhooks,
		logger:   logger.Named("stripe_webhook"),
	}
}

func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	event, err := h.webhooks.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		metrics.WebhookEvent("unverified", "invalid_signature")
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	err = h.webhooks.Handle(c.Request.Context(), event)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, services.ErrDuplicateEvent):
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
	case errors.Is(err, payments.ErrMissingData):
		c.String(http.StatusBadRequest, "Missing data")
	default:
		// A 5xx makes Stripe redeliver; every mutation is idempotent.
		c.String(http.StatusInternalServerError, "Webhook Error: %s", err.Error())
	}
}
