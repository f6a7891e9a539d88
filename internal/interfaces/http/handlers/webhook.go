// internal/interfaces/http/handlers/webhook.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
)

const maxWebhookBody = 64 << 10

// NotificationService processes processor notifications
type NotificationService interface {
	Handle(ctx context.Context, topic, notificationID string) (*payment.Result, error)
}

// WebhookHandler receives MercadoPago notifications
type WebhookHandler struct {
	notifications NotificationService
	secret        string
	logger        logrus.FieldLogger
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// signature verification.
func NewWebhookHandler(notifications NotificationService, secret string, logger logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		notifications: notifications,
		secret:        secret,
		logger:        logger,
	}
}

// webhookBody is the JSON body of webhook style notifications
type webhookBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID mercadopago.FlexID `json:"id"`
	} `json:"data"`
}

// MercadoPago handles POST /webhook/mercadopago
//
// Only a failed payment lookup or purchase commit answers 500, which makes the
// processor redeliver. Everything else is acknowledged with 200. Answering 500
// on a failed commit is deliberate even though the lookup is the only step the
// processor contract calls retryable: an approved payment must never be acked
// before its purchase record exists.
func (h *WebhookHandler) MercadoPago(c *gin.Context) {
	topic, notificationID, dataID := h.notificationParams(c)

	log := h.logger.WithFields(logrus.Fields{
		"topic":           topic,
		"notification_id": notificationID,
		"request_id":      c.GetHeader("x-request-id"),
	})

	// Legacy IPN deliveries are unsigned; the payment is re-fetched either way
	if signature := c.GetHeader("x-signature"); h.secret != "" && signature != "" {
		if err := mercadopago.VerifySignature(h.secret, signature, c.GetHeader("x-request-id"), dataID); err != nil {
			log.WithError(err).Warn("Rejected webhook with invalid signature")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid signature",
			})
			return
		}
	}

	result, err := h.notifications.Handle(c.Request.Context(), topic, notificationID)
	if err != nil {
		var perr *payment.PaymentProcessorError
		if errors.As(err, &perr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Payment lookup failed",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process notification",
		})
		return
	}

	log.WithField("outcome", result.Outcome).Info("Notification processed")
	c.JSON(http.StatusOK, gin.H{
		"status": result.Outcome,
	})
}

// notificationParams reads topic and id from the IPN query (?topic=&id=),
// the webhook query (?type=&data.id=) or the JSON body, in that order.
// dataID is the value covered by the signature.
func (h *WebhookHandler) notificationParams(c *gin.Context) (topic, notificationID, dataID string) {
	topic = c.Query("topic")
	if topic == "" {
		topic = c.Query("type")
	}
	dataID = c.Query("data.id")
	notificationID = c.Query("id")
	if notificationID == "" {
		notificationID = dataID
	}

	if topic != "" && notificationID != "" {
		return topic, notificationID, dataID
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil || len(raw) == 0 {
		return topic, notificationID, dataID
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		h.logger.WithError(err).Debug("Ignoring unparseable webhook body")
		return topic, notificationID, dataID
	}

	if topic == "" {
		topic = body.Type
		if topic == "" {
			topic = body.Topic
		}
	}
	if notificationID == "" {
		notificationID = string(body.Data.ID)
	}
	if dataID == "" {
		dataID = string(body.Data.ID)
	}
	return topic, notificationID, dataID
}
