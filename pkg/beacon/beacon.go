// Package beacon implements the fire-and-forget transport used by the
// unload flush: a short-deadline JSON POST whose response body is never
// consumed, the Go analogue of navigator.sendBeacon. Dispatch failures are
// unobservable by design.
package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultTimeout keeps the last-chance write from outliving page teardown.
const defaultTimeout = 2 * time.Second

// Sender dispatches best-effort payloads to a fixed endpoint.
type Sender struct {
	endpoint string
	client   *http.Client
}

// NewSender creates a Sender targeting endpoint. A nil client uses a
// dedicated short-timeout client.
func NewSender(endpoint string, client *http.Client) *Sender {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Sender{endpoint: endpoint, client: client}
}

// Send serializes payload and POSTs it. The response status is checked but
// the body is discarded; callers treat any error as a logged, swallowed
// failure.
func (s *Sender) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("beacon: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("beacon: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("beacon: dispatch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("beacon: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
