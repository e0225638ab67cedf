package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// Svix signature headers required on every Clerk delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

var (
	// ErrSecretMissing indicates the shared webhook secret was not configured.
	ErrSecretMissing = errors.New("webhook secret is not configured")
	// ErrMissingHeaders indicates one or more svix signature headers were absent.
	ErrMissingHeaders = errors.New("missing svix signature headers")
	// ErrInvalidSignature indicates cryptographic verification of the delivery failed.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// Verifier authenticates inbound deliveries against the shared svix secret.
type Verifier struct {
	wh *svix.Webhook
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("init webhook verifier: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify checks the three signature headers and the payload signature, then
// decodes the body into an Event. Nothing downstream runs on a delivery that
// fails here.
func (v *Verifier) Verify(body []byte, header http.Header) (Event, error) {
	for _, name := range []string{HeaderID, HeaderTimestamp, HeaderSignature} {
		if header.Get(name) == "" {
			return Event{}, ErrMissingHeaders
		}
	}

	if err := v.wh.Verify(body, header); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return evt, nil
}
