// internal/domain/payment/intent.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
)

// Intent is the processor handle the buyer is redirected to
type Intent struct {
	ID          string `json:"intentId"`
	RedirectURL string `json:"redirectUrl"`
}

// IntentConfig holds the URLs and currency sent with every preference
type IntentConfig struct {
	Currency        string
	FrontendURL     string
	NotificationURL string
	Sandbox         bool
}

// IntentCreator builds payment intents from carts
type IntentCreator struct {
	processor PreferenceCreator
	carts     cart.Store
	config    IntentConfig
	logger    logrus.FieldLogger
}

// NewIntentCreator creates a new intent creator. carts may be nil when only
// CreateIntent is used.
func NewIntentCreator(processor PreferenceCreator, carts cart.Store, cfg IntentConfig, logger logrus.FieldLogger) *IntentCreator {
	return &IntentCreator{
		processor: processor,
		carts:     carts,
		config:    cfg,
		logger:    logger,
	}
}

// CreateIntent validates the lines and creates one preference at the processor.
// It has no local side effects.
func (c *IntentCreator) CreateIntent(ctx context.Context, userID string, lines []Line) (*Intent, error) {
	if err := ValidateLines(userID, lines); err != nil {
		return nil, err
	}

	items := make([]mercadopago.PreferenceItem, len(lines))
	for i, line := range lines {
		items[i] = mercadopago.PreferenceItem{
			Title:      line.Title,
			Quantity:   line.Quantity,
			UnitPrice:  json.Number(line.UnitPrice.String()),
			CurrencyID: c.config.Currency,
		}
	}

	req := mercadopago.PreferenceRequest{
		Items: items,
		BackURLs: mercadopago.BackURLs{
			Success: c.config.FrontendURL + "/purchase-success",
			Failure: c.config.FrontendURL + "/purchase-failure",
			Pending: c.config.FrontendURL + "/purchase-pending",
		},
		AutoReturn:        "approved",
		ExternalReference: userID,
		NotificationURL:   c.config.NotificationURL,
	}

	log := c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"items":   len(lines),
		"total":   Total(lines).String(),
	})

	pref, err := c.processor.CreatePreference(ctx, req)
	if err != nil {
		perr := newProcessorError("create_preference", err)
		log.WithError(err).Error("Failed to create payment preference")
		return nil, perr
	}

	intent := &Intent{ID: pref.ID, RedirectURL: pref.InitPoint}
	if (c.config.Sandbox && pref.SandboxInitPoint != "") || intent.RedirectURL == "" {
		intent.RedirectURL = pref.SandboxInitPoint
	}

	log.WithField("intent_id", intent.ID).Info("Payment preference created")
	return intent, nil
}

// CheckoutCart creates an intent from the user's stored cart. The cart is only read.
func (c *IntentCreator) CheckoutCart(ctx context.Context, userID string) (*Intent, error) {
	if c.carts == nil {
		return nil, fmt.Errorf("cart store not configured")
	}
	if userID == "" {
		return nil, &InvalidCartError{Field: "userId", Index: -1, Reason: "user ID is required"}
	}

	items, err := c.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return c.CreateIntent(ctx, userID, LinesFromCart(items))
}
