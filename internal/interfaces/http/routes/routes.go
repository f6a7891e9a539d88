// internal/interfaces/http/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
)

// StreamPath is the long-lived cart stream, exempt from request timeouts
const StreamPath = "/api/v1/cart/stream"

// Dependencies are the handlers and collaborators the routes are built from
type Dependencies struct {
	Cart     *handlers.CartHandler
	Payment  *handlers.PaymentHandler
	Webhook  *handlers.WebhookHandler
	Purchase *handlers.PurchaseHandler

	Tokens middleware.TokenValidator

	// RedisClient backs the rate limiter; nil disables rate limiting
	RedisClient        *redis.Client
	RateLimitPerMinute int
	Logger             logrus.FieldLogger
}

// SetupRoutes registers every endpoint on the engine
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Storefront checkout is running")
	})

	SetupPaymentRoutes(r, deps)
	SetupWebhookRoutes(r, deps)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(deps.Tokens))
	SetupCartRoutes(apiV1, deps)
	SetupPurchaseRoutes(apiV1, deps)
}

// SetupPaymentRoutes sets up intent creation routes
func SetupPaymentRoutes(r *gin.Engine, deps Dependencies) {
	preference := r.Group("/create_preference")
	if deps.RedisClient != nil {
		preference.Use(middleware.RateLimit(deps.RateLimitPerMinute, deps.RedisClient, deps.Logger))
	}
	preference.Use(middleware.OptionalAuthMiddleware(deps.Tokens))
	{
		preference.POST("", deps.Payment.CreatePreference)
	}
}

// SetupWebhookRoutes sets up processor notification routes. They are not rate
// limited since dropped notifications are redelivered late.
func SetupWebhookRoutes(r *gin.Engine, deps Dependencies) {
	webhooks := r.Group("/webhook")
	{
		webhooks.POST("/mercadopago", deps.Webhook.MercadoPago)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cart := rg.Group("/cart")
	{
		cart.GET("", deps.Cart.GetCart)
		cart.DELETE("", deps.Cart.ClearCart)
		cart.GET("/stream", deps.Cart.StreamCart)
		cart.POST("/items", deps.Cart.AddToCart)
		cart.PUT("/items/:productId", deps.Cart.UpdateCartItem)
		cart.DELETE("/items/:productId", deps.Cart.RemoveFromCart)
	}

	rg.POST("/checkout", deps.Payment.Checkout)
}

// SetupPurchaseRoutes sets up purchase history routes
func SetupPurchaseRoutes(rg *gin.RouterGroup, deps Dependencies) {
	purchases := rg.Group("/purchases")
	{
		purchases.GET("", deps.Purchase.ListPurchases)
		purchases.GET("/:id", deps.Purchase.GetPurchase)
		purchases.GET("/:id/receipt", deps.Purchase.GetReceipt)
	}
}
