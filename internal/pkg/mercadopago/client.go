// internal/pkg/mercadopago/client.go
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Options configures a Client
type Options struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      logrus.FieldLogger
}

// Client calls the MercadoPago REST API
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
	logger      logrus.FieldLogger
	newKey      func() string
}

// NewClient creates a new MercadoPago API client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		baseURL:     baseURL,
		accessToken: opts.AccessToken,
		httpClient:  httpClient,
		logger:      logger,
		newKey:      uuid.NewString,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "mercadopago",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the request was wrong, not that the processor is down
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// CreatePreference creates a checkout preference
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	headers := map[string]string{"X-Idempotency-Key": c.newKey()}

	body, err := c.makeAPICall(ctx, http.MethodPost, "/checkout/preferences", req, headers)
	if err != nil {
		return nil, err
	}

	var pref Preference
	if err := json.Unmarshal(body, &pref); err != nil {
		return nil, fmt.Errorf("failed to parse preference response: %w", err)
	}
	if pref.ID == "" {
		return nil, fmt.Errorf("preference response missing id")
	}
	return &pref, nil
}

// GetPayment fetches the current state of a payment
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment ID is required")
	}

	body, err := c.makeAPICall(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}
	return &payment, nil
}

// makeAPICall sends one request through the circuit breaker and returns the 2xx body
func (c *Client) makeAPICall(ctx context.Context, method, endpoint string, payload interface{}, headers map[string]string) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = data
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make API call: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newAPIError(resp.StatusCode, respBody)
		}
		return respBody, nil
	})

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
		"duration": time.Since(start).String(),
		"success":  err == nil,
	}).Debug("MercadoPago API call")

	return body, err
}

func newAPIError(status int, body []byte) *APIError {
	var envelope apiErrorBody
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			message = envelope.Message
		case envelope.Error != "":
			message = envelope.Error
		}
	}
	return &APIError{StatusCode: status, Message: message}
}
