package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docgrove/pdfbatch/pdfpipe"
)

// runPayload is the JSON body delivered to each webhook after a completed run.
type runPayload struct {
	Event      string `json:"event"`
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

// notifier posts a signed run summary to every configured webhook. Delivery is
// fire-and-forget: failures are logged, never retried.
type notifier struct {
	targets []WebhookTarget
	logger  *slog.Logger
	client  *http.Client
}

func newNotifier(targets []WebhookTarget, logger *slog.Logger, client *http.Client) *notifier {
	return &notifier{targets: targets, logger: logger, client: client}
}

// Document is part of pdfpipe.EventSink; webhooks only see run summaries.
func (n *notifier) Document(context.Context, pdfpipe.DocumentEvent) {}

// Batch delivers the run summary to every target. Delivery runs detached from
// the request context so a slow webhook never blocks the response.
func (n *notifier) Batch(_ context.Context, ev pdfpipe.BatchEvent) {
	payload := runPayload{
		Event:      "run.complete",
		Total:      ev.Total,
		Succeeded:  ev.Succeeded,
		Failed:     len(ev.Failures),
		DurationMS: ev.Elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshal webhook payload", "error", err)
		return
	}
	go func() {
		for _, t := range n.targets {
			n.deliver(t, body)
		}
	}()
}

func (n *notifier) deliver(t WebhookTarget, body []byte) {
	req, err := http.NewRequest(http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("create webhook request", "url", t.URL, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.Secret != "" {
		mac := hmac.New(sha256.New, []byte(t.Secret))
		mac.Write(body)
		req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed", "url", t.URL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("webhook delivery failed", "url", t.URL, "status", resp.StatusCode)
		return
	}
	n.logger.Debug("webhook delivered", "url", t.URL, "status", resp.StatusCode)
}

var _ pdfpipe.EventSink = (*notifier)(nil)
