package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

// SignatureHeader carries the provider's event signature, in the scheme
// "t=<unix>,v1=<hex hmac-sha256 of "<t>.<body>">".
const SignatureHeader = "Payment-Signature"

// DefaultSignatureTolerance bounds how stale a signed timestamp may be,
// limiting replay of captured webhook payloads.
const DefaultSignatureTolerance = 5 * time.Minute

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

// Event is a payment provider notification about a checkout session.
// Delivery is at-least-once and unordered.
type Event struct {
	Type      string
	SessionID string
}

// VerifySignature authenticates a raw webhook payload against its signature
// header. Any failure returns domain.ErrInvalidSignature; callers must not
// act on the payload in that case.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	var ts string
	var sig string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return domain.ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	signedAt := time.Unix(unix, 0)
	if signedAt.Before(now.Add(-tolerance)) || signedAt.After(now.Add(tolerance)) {
		return domain.ErrInvalidSignature
	}

	expected := ComputeSignature(payload, secret, unix)
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	if !hmac.Equal(provided, expected) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// ComputeSignature returns the raw HMAC for a payload at a given timestamp.
// Exported for tests and local webhook tooling.
func ComputeSignature(payload []byte, secret string, unix int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(unix, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload builds a full signature header value for a payload.
func SignPayload(payload []byte, secret string, at time.Time) string {
	unix := at.Unix()
	sig := ComputeSignature(payload, secret, unix)
	return fmt.Sprintf("t=%d,v1=%s", unix, hex.EncodeToString(sig))
}

type eventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	if env.Type == "" || env.Data.Object.ID == "" {
		return Event{}, fmt.Errorf("parse event: missing type or session id")
	}
	return Event{Type: env.Type, SessionID: env.Data.Object.ID}, nil
}
