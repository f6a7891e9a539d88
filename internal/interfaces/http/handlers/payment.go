// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
)

// IntentService creates payment intents
type IntentService interface {
	CreateIntent(ctx context.Context, userID string, lines []payment.Line) (*payment.Intent, error)
	CheckoutCart(ctx context.Context, userID string) (*payment.Intent, error)
}

// PaymentHandler handles payment intent endpoints
type PaymentHandler struct {
	intents IntentService
	logger  logrus.FieldLogger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(intents IntentService, logger logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{
		intents: intents,
		logger:  logger,
	}
}

// checkoutItem is an inbound cart line. Older storefront builds send the
// Spanish field names, others the processor's.
type checkoutItem struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Nombre string `json:"nombre"`

	Quantity json.Number `json:"quantity"`
	Cantidad json.Number `json:"cantidad"`

	UnitPrice      decimal.NullDecimal `json:"unitPrice"`
	UnitPriceSnake decimal.NullDecimal `json:"unit_price"`
	Price          decimal.NullDecimal `json:"price"`
	Precio         decimal.NullDecimal `json:"precio"`
}

// line normalizes the item; unparseable values become zero and fail validation
func (i checkoutItem) line() payment.Line {
	l := payment.Line{Title: firstNonEmpty(i.Name, i.Title, i.Nombre)}

	quantity := i.Quantity
	if quantity == "" {
		quantity = i.Cantidad
	}
	// Integral decimals such as 2.0 count as whole quantities
	if d, err := decimal.NewFromString(quantity.String()); err == nil && d.Equal(d.Truncate(0)) {
		l.Quantity = int(d.IntPart())
	}

	for _, price := range []decimal.NullDecimal{i.UnitPrice, i.UnitPriceSnake, i.Price, i.Precio} {
		if price.Valid {
			l.UnitPrice = price.Decimal
			break
		}
	}
	return l
}

// CreatePreferenceRequest is the body of POST /create_preference
type CreatePreferenceRequest struct {
	Items  []checkoutItem `json:"items"`
	UserID string         `json:"userId"`
}

// CreatePreference handles POST /create_preference
func (h *PaymentHandler) CreatePreference(c *gin.Context) {
	var req CreatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// An authenticated caller may only pay for their own cart
	if authUserID, ok := middleware.GetUserIDFromContext(c); ok && req.UserID != "" && req.UserID != authUserID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Cannot create a payment for another user",
		})
		return
	}

	lines := make([]payment.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = item.line()
	}

	intent, err := h.intents.CreateIntent(c.Request.Context(), strings.TrimSpace(req.UserID), lines)
	if err != nil {
		h.writeIntentError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Checkout handles POST /api/v1/checkout using the stored cart
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	intent, err := h.intents.CheckoutCart(c.Request.Context(), userID)
	if err != nil {
		h.writeIntentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment created successfully",
		"data":    intent,
	})
}

func (h *PaymentHandler) writeIntentError(c *gin.Context, err error) {
	var invalid *payment.InvalidCartError
	if errors.As(err, &invalid) {
		body := gin.H{
			"error": invalid.Reason,
			"field": invalid.Field,
		}
		if invalid.Index >= 0 {
			body["index"] = invalid.Index
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	var perr *payment.PaymentProcessorError
	if errors.As(err, &perr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Payment processor unavailable, please try again later",
		})
		return
	}

	h.logger.WithError(err).Error("Failed to create payment")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to create payment",
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
