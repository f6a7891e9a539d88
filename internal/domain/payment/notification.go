// internal/domain/payment/notification.go
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
	"golang.org/x/sync/singleflight"
)

// TopicPayment is the only notification topic that is processed
const TopicPayment = "payment"

// Outcome describes what a notification led to
type Outcome string

const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeNotApproved  Outcome = "not_approved"
	OutcomeUnattributed Outcome = "unattributed"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeRecorded     Outcome = "recorded"
)

// Result is the outcome of one handled notification. CartClearErr is set when
// the purchase was recorded but the cart could not be cleared.
type Result struct {
	Outcome      Outcome
	PurchaseID   string
	UserID       string
	Status       string
	Record       *order.PurchaseRecord
	CartClearErr error
}

// OrderRecorder commits approved payments
type OrderRecorder interface {
	Record(ctx context.Context, req order.RecordRequest) (*order.PurchaseRecord, error)
}

// CartClearer empties a user's cart
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// NotificationHandler turns processor notifications into purchase records
type NotificationHandler struct {
	payments      PaymentFetcher
	recorder      OrderRecorder
	carts         CartClearer
	lookupTimeout time.Duration
	logger        logrus.FieldLogger
	group         singleflight.Group
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(payments PaymentFetcher, recorder OrderRecorder, carts CartClearer, lookupTimeout time.Duration, logger logrus.FieldLogger) *NotificationHandler {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &NotificationHandler{
		payments:      payments,
		recorder:      recorder,
		carts:         carts,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Handle processes one notification. A non-nil error means the notification
// must not be acknowledged so the processor redelivers it.
func (h *NotificationHandler) Handle(ctx context.Context, topic, notificationID string) (*Result, error) {
	notificationID = strings.TrimSpace(notificationID)
	log := h.logger.WithFields(logrus.Fields{
		"topic":           topic,
		"notification_id": notificationID,
	})

	if topic != TopicPayment {
		log.Debug("Ignoring notification topic")
		return &Result{Outcome: OutcomeIgnored}, nil
	}
	if notificationID == "" {
		log.Warn("Payment notification without id")
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	// Redeliveries racing inside this process share one lookup and one commit
	v, err, shared := h.group.Do(notificationID, func() (interface{}, error) {
		return h.process(ctx, log, notificationID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("Notification collapsed with concurrent delivery")
	}
	return v.(*Result), nil
}

func (h *NotificationHandler) process(ctx context.Context, log logrus.FieldLogger, notificationID string) (*Result, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
	defer cancel()

	p, err := h.payments.GetPayment(lookupCtx, notificationID)
	if err != nil {
		log.WithError(err).Error("Payment lookup failed")
		return nil, newProcessorError("get_payment", err)
	}

	purchaseID := string(p.ID)
	if purchaseID == "" {
		purchaseID = notificationID
	}
	userID := strings.TrimSpace(p.ExternalReference)

	result := &Result{PurchaseID: purchaseID, UserID: userID, Status: p.Status}
	log = log.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"user_id":     userID,
		"status":      p.Status,
	})

	if p.Status != mercadopago.StatusApproved {
		switch p.Status {
		case mercadopago.StatusRefunded, mercadopago.StatusChargeback:
			// Reversals are not applied to purchase records
			log.Warn("Payment reversed at processor, purchase record left unchanged")
		default:
			log.Info("Payment not approved, nothing to record")
		}
		result.Outcome = OutcomeNotApproved
		return result, nil
	}

	if userID == "" {
		log.Error("Approved payment has no external reference, cannot attribute purchase")
		result.Outcome = OutcomeUnattributed
		return result, nil
	}

	record, err := h.recorder.Record(ctx, recordRequest(purchaseID, userID, p))
	if order.IsDuplicate(err) {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to record purchase")
		return nil, fmt.Errorf("failed to record purchase %s: %w", purchaseID, err)
	}
	result.Record = record

	// The purchase is committed; the cart clear is best effort
	if err := h.carts.Clear(ctx, userID); err != nil {
		result.CartClearErr = &CartClearError{UserID: userID, Err: err}
		log.WithError(err).Warn("Purchase recorded but cart was not cleared")
	}

	result.Outcome = OutcomeRecorded
	return result, nil
}

func recordRequest(purchaseID, userID string, p *mercadopago.Payment) order.RecordRequest {
	items := make([]order.PurchaseItem, 0, len(p.AdditionalInfo.Items))
	for _, item := range p.AdditionalInfo.Items {
		items = append(items, order.PurchaseItem{
			Title:     item.Title,
			Quantity:  int(item.Quantity),
			UnitPrice: item.UnitPrice,
		})
	}

	req := order.RecordRequest{
		UserID:     userID,
		PurchaseID: purchaseID,
		Items:      items,
		Total:      p.TransactionAmount,
		Currency:   p.CurrencyID,
		Status:     p.Status,
	}
	if p.DateApproved != nil {
		req.Timestamp = p.DateApproved.UTC()
	}
	return req
}
