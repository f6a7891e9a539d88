// internal/pkg/mercadopago/types.go
package mercadopago

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the processor
const (
	StatusApproved   = "approved"
	StatusPending    = "pending"
	StatusInProcess  = "in_process"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
	StatusChargeback = "charged_back"
)

// PreferenceItem is one line of a checkout preference
type PreferenceItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"`
	CurrencyID string      `json:"currency_id,omitempty"`
}

// BackURLs are the storefront pages the buyer returns to
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the body of POST /checkout/preferences
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
}

// Preference is the processor's answer to a preference create
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the subset of GET /v1/payments/{id} the checkout relies on
type Payment struct {
	ID                FlexID          `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	DateApproved      *time.Time      `json:"date_approved"`
	DateCreated       *time.Time      `json:"date_created"`
	AdditionalInfo    AdditionalInfo  `json:"additional_info"`
}

// AdditionalInfo carries the item snapshot echoed back from the preference
type AdditionalInfo struct {
	Items []PaymentItem `json:"items"`
}

// PaymentItem is an item as echoed in a payment; numeric fields may arrive as strings
type PaymentItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Quantity  FlexInt         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// FlexID decodes an identifier sent either as a JSON number or a string
type FlexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*f = FlexID(n.String())
	return nil
}

// FlexInt decodes a JSON number or numeric string
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*f = 0
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		// Some integrations send "2.0"
		d, derr := decimal.NewFromString(raw)
		if derr != nil || !d.Equal(d.Truncate(0)) {
			return fmt.Errorf("invalid quantity %q", raw)
		}
		n = int(d.IntPart())
	}
	*f = FlexInt(n)
	return nil
}

// APIError is a non-2xx answer from the processor
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Message)
}

// apiErrorBody is the processor's error envelope
type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
