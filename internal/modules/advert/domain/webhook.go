package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "siteaudit/internal/platform/errors"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac-sha256>" where the
// MAC covers "<t>.<payload>".
const SignatureHeader = "Checkout-Signature"

// SignatureTolerance is how far a callback timestamp may drift from now.
const SignatureTolerance = 5 * time.Minute

const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutEvent is the subset of a payment callback the flow acts on.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			PaymentStatus     string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + mac(ts, payload, secret)
}

// VerifySignature checks header against payload. Any v1 entry may match so
// secrets can be rotated.
func VerifySignature(header string, payload []byte, secret string, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", apperrors.ErrUnauthorized)
	}
	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts == "" || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed %s header", apperrors.ErrUnauthorized, SignatureHeader)
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad signature timestamp", apperrors.ErrUnauthorized)
	}
	drift := now.Sub(time.Unix(unix, 0))
	if drift < -SignatureTolerance || drift > SignatureTolerance {
		return fmt.Errorf("%w: signature timestamp outside tolerance", apperrors.ErrUnauthorized)
	}
	expected, _ := hex.DecodeString(mac(ts, payload, secret))
	for _, candidate := range candidates {
		got, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return fmt.Errorf("%w: signature mismatch", apperrors.ErrUnauthorized)
}

func mac(ts string, payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
