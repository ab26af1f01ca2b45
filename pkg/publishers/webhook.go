package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/Adda-Baaj/newsscrape/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// webhookPublisher sends each event as a JSON request to a fixed endpoint.
type webhookPublisher struct {
	id     string
	cfg    WebhookConfig
	client *resty.Client
	log    logger.Logger
}

func newWebhookPublisher(_ context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	w := *cfg.HTTP
	client := httpclient.NewRestyHTTPClient(time.Duration(w.TimeoutSeconds) * time.Second).
		SetHeaders(w.Headers).
		SetHeader("Content-Type", "application/json")
	return &webhookPublisher{id: cfg.ID, cfg: w, client: client, log: logger.Ensure(log)}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-Event-Type", evt.Type).
		SetBody(evt).
		Execute(w.cfg.Method, w.cfg.URL)
	if err != nil {
		return fmt.Errorf("%s %s: %w", w.cfg.Method, w.cfg.URL, err)
	}
	if resp.IsError() {
		return &httpclient.StatusError{
			Method:  w.cfg.Method,
			URL:     w.cfg.URL,
			Code:    resp.StatusCode(),
			Snippet: httpclient.Snippet(resp.Body(), 512),
		}
	}
	w.log.DebugObj("webhook accepted event", "publisher_delivery", map[string]any{
		"publisher_id": w.id,
		"status":       resp.StatusCode(),
		"name":         evt.Content.Name,
	})
	return nil
}
