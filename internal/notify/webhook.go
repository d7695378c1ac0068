package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/pkg/httpclient"
)

const (
	webhookDefaultMethod  = http.MethodPost
	webhookDefaultTimeout = 5 * time.Second
)

// WebhookEvent is the payload delivered to the webhook.
type WebhookEvent struct {
	App      string          `json:"app"`
	Message  string          `json:"message"`
	Severity domain.Severity `json:"severity"`
	SentAt   time.Time       `json:"sent_at"`
}

// NewWebhookEvent stamps a notification for delivery.
func NewWebhookEvent(app, message string, severity domain.Severity) WebhookEvent {
	return WebhookEvent{
		App:      app,
		Message:  message,
		Severity: severity,
		SentAt:   time.Now().UTC(),
	}
}

// WebhookConfig holds the webhook sink settings.
type WebhookConfig struct {
	App     string
	URL     string
	Method  string
	Headers map[string]string
	Timeout time.Duration
}

// WebhookSink forwards notifications to an HTTP endpoint. Delivery errors
// are logged only; they never turn into notifications themselves.
type WebhookSink struct {
	app     string
	method  string
	url     string
	headers map[string]string
	timeout time.Duration
	client  httpclient.Client
	log     logger.Logger
}

// NewWebhookSink builds a sink. client may be nil, in which case a resty
// transport with the configured timeout is used.
func NewWebhookSink(cfg WebhookConfig, client httpclient.Client, log logger.Logger) (*WebhookSink, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = webhookDefaultMethod
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = webhookDefaultTimeout
	}
	if client == nil {
		client = httpclient.NewRestyClient("", timeout)
	}

	return &WebhookSink{
		app:     cfg.App,
		method:  method,
		url:     endpoint,
		headers: sanitizeHeaders(cfg.Headers),
		timeout: timeout,
		client:  client,
		log:     logger.Ensure(log),
	}, nil
}

// Notify delivers the notification synchronously. The caller's
// cancellation does not abort a delivery already started.
func (w *WebhookSink) Notify(ctx context.Context, message string, severity domain.Severity) {
	if err := w.Publish(ctx, NewWebhookEvent(w.app, message, severity)); err != nil {
		w.log.WarnObj("webhook delivery failed", "webhook", map[string]any{
			"url":   w.url,
			"error": err.Error(),
		})
	}
}

// Publish sends evt and reports delivery errors.
func (w *WebhookSink) Publish(ctx context.Context, evt WebhookEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	_, err := w.client.Do(ctx, httpclient.Request{
		Method:  w.method,
		Path:    w.url,
		Headers: w.headers,
		Body:    evt,
	})
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	return nil
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
