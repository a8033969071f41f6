// Package notify alerts downstream systems when an intake completes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

// ErrNotConfigured is returned by Noop.
var ErrNotConfigured = intake.ErrNotConfigured

// DefaultTimeout bounds a single webhook call.
const DefaultTimeout = 10 * time.Second

type payload struct {
	Name   string `json:"patient_name"`
	Age    int    `json:"patient_age"`
	Reason string `json:"patient_query"`
	Ward   string `json:"ward"`
}

// Webhook POSTs completed intakes as JSON.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook 创建 webhook 通知器；timeout 非正数时使用默认值。
func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("webhook url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Webhook{url: url, client: &http.Client{Timeout: timeout}}, nil
}

// Notify sends rec. Any non-2xx status is an error.
func (w *Webhook) Notify(ctx context.Context, rec intake.Record) error {
	body, err := json.Marshal(payload{
		Name:   rec.Name,
		Age:    rec.Age,
		Reason: rec.Reason,
		Ward:   rec.Ward(),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Noop drops notifications.
type Noop struct{}

func (Noop) Notify(context.Context, intake.Record) error {
	return ErrNotConfigured
}

// New returns a Webhook when cfg has a URL and Noop otherwise.
func New(cfg config.NotifierConfig) (intake.Notifier, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	return NewWebhook(cfg.WebhookURL, cfg.Timeout)
}
