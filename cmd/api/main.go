// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-checkout/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-checkout/internal/interfaces/http"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/routes"
	"github.com/your-org/storefront-checkout/internal/pkg/auth"
	"github.com/your-org/storefront-checkout/internal/pkg/logger"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
	"github.com/your-org/storefront-checkout/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}
	if err := migration.VerifyPaymentIntegration(); err != nil {
		log.WithError(err).Fatal("Purchase schema verification failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.GetTableInfo(); err != nil {
			log.WithError(err).Warn("Failed to list tables")
		}
	}

	// Cart store
	var carts cart.Store
	switch cfg.Cart.Store {
	case config.CartStoreRedis:
		carts = cart.NewRedisStore(redisClient.GetClient(), cfg.Cart.TTL)
	default:
		carts = cart.NewGormStore(db.GetDB())
	}
	log.WithField("backend", cfg.Cart.Store).Info("Cart store ready")

	// Payment processor and domain services
	processor := mercadopago.NewClient(mercadopago.Options{
		BaseURL:     cfg.MercadoPago.BaseURL,
		AccessToken: cfg.MercadoPago.AccessToken,
		Timeout:     cfg.MercadoPago.Timeout,
		Logger:      log,
	})

	recorder := order.NewRecorder(order.NewGormStore(db.GetDB()), log)
	intents := payment.NewIntentCreator(processor, carts, payment.IntentConfig{
		Currency:        cfg.MercadoPago.Currency,
		FrontendURL:     cfg.Frontend.BaseURL,
		NotificationURL: cfg.NotificationURL(),
		Sandbox:         cfg.MercadoPago.Sandbox,
	}, log)
	notifications := payment.NewNotificationHandler(processor, recorder, carts, cfg.MercadoPago.LookupTimeout, log)

	deps := routes.Dependencies{
		Cart:               handlers.NewCartHandler(carts, log),
		Payment:            handlers.NewPaymentHandler(intents, log),
		Webhook:            handlers.NewWebhookHandler(notifications, cfg.MercadoPago.WebhookSecret, log),
		Purchase:           handlers.NewPurchaseHandler(recorder, pdf.NewService(cfg.Store), log),
		Tokens:             auth.NewJWTManager(cfg.JWT),
		RedisClient:        redisClient.GetClient(),
		RateLimitPerMinute: cfg.Security.RateLimitPerMinute,
		Logger:             log,
	}

	server := http.NewServer(cfg, deps, map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	}, log)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
