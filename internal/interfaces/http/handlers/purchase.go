// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/order"
)

// PurchaseService reads a user's purchase history
type PurchaseService interface {
	Get(ctx context.Context, userID, purchaseID string) (*order.PurchaseRecord, error)
	History(ctx context.Context, userID string) ([]order.PurchaseRecord, error)
}

// ReceiptRenderer renders a purchase receipt as PDF
type ReceiptRenderer interface {
	GenerateReceipt(record *order.PurchaseRecord) (*bytes.Buffer, error)
}

// PurchaseHandler handles purchase history endpoints
type PurchaseHandler struct {
	purchases PurchaseService
	receipts  ReceiptRenderer
	logger    logrus.FieldLogger
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchases PurchaseService, receipts ReceiptRenderer, logger logrus.FieldLogger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		receipts:  receipts,
		logger:    logger,
	}
}

// ListPurchases handles GET /purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	records, err := h.purchases.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list purchases")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve purchases",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchases retrieved successfully",
		"data":    records,
	})
}

// GetPurchase handles GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	record, ok := h.loadPurchase(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase retrieved successfully",
		"data":    record,
	})
}

// GetReceipt handles GET /purchases/:id/receipt
func (h *PurchaseHandler) GetReceipt(c *gin.Context) {
	record, ok := h.loadPurchase(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.receipts.GenerateReceipt(record)
	if err != nil {
		h.logger.WithError(err).WithField("purchase_id", record.PurchaseID).Error("Failed to generate receipt")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", record.PurchaseID))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// loadPurchase answers 404 for unknown purchases and for other users' purchases
func (h *PurchaseHandler) loadPurchase(c *gin.Context) (*order.PurchaseRecord, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}

	record, err := h.purchases.Get(c.Request.Context(), userID, c.Param("id"))
	switch {
	case err == nil:
		return record, true
	case errors.Is(err, order.ErrNotFound), errors.Is(err, order.ErrMissingPurchaseID):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Purchase not found",
		})
	default:
		h.logger.WithError(err).WithField("purchase_id", c.Param("id")).Error("Failed to load purchase")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve purchase",
		})
	}
	return nil, false
}
