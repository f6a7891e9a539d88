// internal/domain/payment/processor.go
package payment

import (
	"context"

	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
)

// PreferenceCreator creates checkout preferences at the processor
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// PaymentFetcher reads the authoritative state of a payment
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// Processor is the full processor surface; *mercadopago.Client implements it
type Processor interface {
	PreferenceCreator
	PaymentFetcher
}

var _ Processor = (*mercadopago.Client)(nil)
