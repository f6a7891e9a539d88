// internal/domain/order/recorder.go
package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// amountTolerance absorbs rounding differences between the processor total
// and the per-item sum
var amountTolerance = decimal.RequireFromString("0.01")

// RecordRequest carries one approved payment to be committed as a purchase
type RecordRequest struct {
	UserID     string
	PurchaseID string
	Items      []PurchaseItem
	Total      decimal.Decimal
	Currency   string
	Timestamp  time.Time
	Status     string
}

// Recorder commits purchase records exactly once per purchase ID
type Recorder struct {
	store  Store
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRecorder creates a new order recorder
func NewRecorder(store Store, logger logrus.FieldLogger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record writes the purchase. A purchase ID that was already recorded returns
// *DuplicateOrderError and leaves the stored record untouched.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (*PurchaseRecord, error) {
	purchaseID := strings.TrimSpace(req.PurchaseID)
	userID := strings.TrimSpace(req.UserID)
	if purchaseID == "" {
		return nil, ErrMissingPurchaseID
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	record := &PurchaseRecord{
		PurchaseID: purchaseID,
		UserID:     userID,
		Total:      req.Total,
		Currency:   req.Currency,
		Status:     req.Status,
		PaidAt:     req.Timestamp,
		Items:      make([]PurchaseItem, 0, len(req.Items)),
	}
	if record.Status == "" {
		record.Status = StatusApproved
	}
	if record.PaidAt.IsZero() {
		record.PaidAt = r.now()
	}

	for _, item := range req.Items {
		record.Items = append(record.Items, PurchaseItem{
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	log := r.logger.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"user_id":     userID,
	})

	// The processor's total is authoritative; a mismatch is only reported
	if len(record.Items) > 0 {
		if sum := record.ItemsTotal(); sum.Sub(record.Total).Abs().GreaterThan(amountTolerance) {
			log.WithFields(logrus.Fields{
				"total":       record.Total.String(),
				"items_total": sum.String(),
			}).Warn("Purchase total does not match item sum")
		}
	}

	if err := r.store.Create(ctx, record); err != nil {
		if IsDuplicate(err) {
			log.Info("Purchase already recorded")
		}
		return nil, err
	}

	log.WithField("total", record.Total.String()).Info("Purchase recorded")
	return record, nil
}

// Get returns a purchase owned by userID; other users' purchases are reported as not found
func (r *Recorder) Get(ctx context.Context, userID, purchaseID string) (*PurchaseRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if purchaseID == "" {
		return nil, ErrMissingPurchaseID
	}

	record, err := r.store.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrNotFound
	}
	return record, nil
}

// History lists a user's purchases, newest first
func (r *Recorder) History(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	records, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []PurchaseRecord{}
	}
	return records, nil
}
