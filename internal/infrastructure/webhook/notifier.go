// Package webhook delivers conflict alerts to configured HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/config"
)

const (
	deliverTimeout  = 10 * time.Second
	deliverAttempts = 3
)

// Notifier posts detected conflicts to the configured webhook endpoints.
// It implements domain.AlertSink.
type Notifier struct {
	endpoints []config.WebhookEndpoint
	client    *http.Client
	now       func() time.Time
}

// NewNotifier creates a notifier for the given endpoints. A nil clock uses
// time.Now.
func NewNotifier(endpoints []config.WebhookEndpoint, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{
		endpoints: endpoints,
		client:    &http.Client{Timeout: deliverTimeout},
		now:       now,
	}
}

// Payload is the JSON body posted to each endpoint.
type Payload struct {
	EventType string              `json:"event_type"`
	Timestamp time.Time           `json:"timestamp"`
	Conflicts []conflict.Conflict `json:"conflicts"`
}

// Notify delivers the conflicts to every enabled endpoint whose type filter
// matches at least one conflict. Delivery failures are swallowed; alerting
// never fails a scan.
func (n *Notifier) Notify(ctx context.Context, conflicts []conflict.Conflict) {
	for _, ep := range n.endpoints {
		if !ep.Enabled {
			continue
		}
		matched := filterByType(conflicts, ep.Types)
		if len(matched) == 0 {
			continue
		}
		body, err := json.Marshal(Payload{
			EventType: "conflicts.detected",
			Timestamp: n.now(),
			Conflicts: matched,
		})
		if err != nil {
			continue
		}
		go n.deliver(ctx, ep, body)
	}
}

func filterByType(conflicts []conflict.Conflict, types []string) []conflict.Conflict {
	if len(types) == 0 {
		return conflicts
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	var matched []conflict.Conflict
	for _, c := range conflicts {
		if allowed[string(c.Type)] {
			matched = append(matched, c)
		}
	}
	return matched
}

func (n *Notifier) deliver(ctx context.Context, ep config.WebhookEndpoint, body []byte) {
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   deliverAttempts,
		InitialDelay:  time.Second,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[struct{}](timeout.Config{
		DefaultTimeout: deliverTimeout,
	})

	_, _ = t.Execute(ctx, deliverTimeout, func(ctx context.Context) (struct{}, error) {
		return r.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, n.send(ctx, ep, body)
		})
	})
}

func (n *Notifier) send(ctx context.Context, ep config.WebhookEndpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Crewsched-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set("X-Crewsched-Signature", sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
