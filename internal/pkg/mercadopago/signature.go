// internal/pkg/mercadopago/signature.go
package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing x-signature header")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// VerifySignature checks the x-signature header of a webhook notification.
//
// The header has the form "ts=<unix>,v1=<hex hmac>" and the signed manifest is
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;". Parts with an empty value
// are left out of the manifest.
func VerifySignature(secret, header, requestID, dataID string) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	expected := Sign(secret, ManifestFor(dataID, requestID, ts))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}

// ManifestFor builds the string the processor signs
func ManifestFor(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		// Alphanumeric ids are signed lowercased
		fmt.Fprintf(&b, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	if ts != "" {
		fmt.Fprintf(&b, "ts:%s;", ts)
	}
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of manifest
func Sign(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}
