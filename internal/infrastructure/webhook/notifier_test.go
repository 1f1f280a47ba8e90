package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/config"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/webhook"
)

type delivery struct {
	body      []byte
	signature string
	userAgent string
}

func captureServer(t *testing.T) (*httptest.Server, chan delivery) {
	t.Helper()
	deliveries := make(chan delivery, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		deliveries <- delivery{
			body:      body,
			signature: r.Header.Get("X-Crewsched-Signature"),
			userAgent: r.Header.Get("User-Agent"),
		}
	}))
	t.Cleanup(srv.Close)
	return srv, deliveries
}

func waitDelivery(t *testing.T, ch chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery within 5s")
		return delivery{}
	}
}

func someConflicts() []conflict.Conflict {
	return []conflict.Conflict{
		{ID: "c1", Type: conflict.TypeDoubleBooking, Severity: conflict.SeverityHigh, Message: "double booked"},
		{ID: "c2", Type: conflict.TypeOvertime, Severity: conflict.SeverityLow, Message: "overtime"},
	}
}

func TestNotify(t *testing.T) {
	srv, deliveries := captureServer(t)
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	n := webhook.NewNotifier([]config.WebhookEndpoint{
		{URL: srv.URL, Secret: "hunter2", Enabled: true},
	}, func() time.Time { return now })

	n.Notify(context.Background(), someConflicts())
	got := waitDelivery(t, deliveries)

	var payload webhook.Payload
	if err := json.Unmarshal(got.body, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.EventType != "conflicts.detected" || !payload.Timestamp.Equal(now) {
		t.Errorf("payload header = %s @ %v", payload.EventType, payload.Timestamp)
	}
	if len(payload.Conflicts) != 2 {
		t.Errorf("delivered %d conflicts, want 2", len(payload.Conflicts))
	}

	mac := hmac.New(sha256.New, []byte("hunter2"))
	mac.Write(got.body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if got.signature != want {
		t.Errorf("signature = %q, want %q", got.signature, want)
	}
	if got.userAgent != "Crewsched-Webhook/1.0" {
		t.Errorf("user agent = %q", got.userAgent)
	}
}

func TestNotify_TypeFilter(t *testing.T) {
	srv, deliveries := captureServer(t)
	n := webhook.NewNotifier([]config.WebhookEndpoint{
		{URL: srv.URL, Enabled: true, Types: []string{"overtime"}},
	}, nil)

	n.Notify(context.Background(), someConflicts())
	got := waitDelivery(t, deliveries)

	var payload webhook.Payload
	if err := json.Unmarshal(got.body, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if len(payload.Conflicts) != 1 || payload.Conflicts[0].Type != conflict.TypeOvertime {
		t.Errorf("filtered delivery = %+v, want only the overtime conflict", payload.Conflicts)
	}
	if got.signature != "" {
		t.Errorf("unsecured endpoint got signature %q", got.signature)
	}
}

func TestNotify_SkipsDisabledAndUnmatched(t *testing.T) {
	srv, deliveries := captureServer(t)
	n := webhook.NewNotifier([]config.WebhookEndpoint{
		{URL: srv.URL, Enabled: false},
		{URL: srv.URL, Enabled: true, Types: []string{"missing_foreman"}},
	}, nil)

	n.Notify(context.Background(), someConflicts())

	select {
	case d := <-deliveries:
		t.Errorf("unexpected delivery: %s", d.body)
	case <-time.After(200 * time.Millisecond):
	}
}
