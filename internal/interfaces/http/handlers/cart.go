// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	store  cart.Store
	logger logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(store cart.Store, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		store:  store,
		logger: logger,
	}
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	Items  []cart.CartItem `json:"items"`
	Totals cart.CartTotals `json:"totals"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func newCartResponse(items []cart.CartItem) CartResponse {
	if items == nil {
		items = []cart.CartItem{}
	}
	return CartResponse{Items: items, Totals: cart.Totals(items)}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	items, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    newCartResponse(items),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	err := h.store.Add(c.Request.Context(), userID, cart.CartItem{
		ProductID: strings.TrimSpace(req.ProductID),
		Name:      strings.TrimSpace(req.Name),
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeError(c, err, "Failed to add item to cart")
		return
	}

	h.respondWithCart(c, userID, "Item added to cart successfully")
}

// UpdateCartItem handles PUT /cart/items/:productId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.Update(c.Request.Context(), userID, c.Param("productId"), *req.Quantity); err != nil {
		h.writeError(c, err, "Failed to update cart item")
		return
	}

	h.respondWithCart(c, userID, "Cart item updated successfully")
}

// RemoveFromCart handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.store.Remove(c.Request.Context(), userID, c.Param("productId")); err != nil {
		h.writeError(c, err, "Failed to remove item from cart")
		return
	}

	h.respondWithCart(c, userID, "Item removed from cart successfully")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.store.Clear(c.Request.Context(), userID); err != nil {
		h.writeError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    newCartResponse(nil),
	})
}

// StreamCart handles GET /cart/stream with server-sent cart snapshots
func (h *CartHandler) StreamCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	watcher, ok := h.store.(cart.Watcher)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Live cart updates are not available",
		})
		return
	}

	updates, err := watcher.Watch(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "Failed to watch cart")
		return
	}

	// The stream outlives the server's WriteTimeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.WithError(err).Debug("Cannot clear write deadline for cart stream")
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		items, open := <-updates
		if !open {
			return false
		}
		c.SSEvent("cart", newCartResponse(items))
		return true
	})
}

func (h *CartHandler) respondWithCart(c *gin.Context, userID, message string) {
	items, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    newCartResponse(items),
	})
}

// writeError maps store errors; validation failures are reported as 400
func (h *CartHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrMissingUserID), errors.Is(err, cart.ErrMissingProductID), cart.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return "", false
	}
	return userID, true
}
