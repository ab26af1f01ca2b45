package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
)

// EventContentExtracted is emitted after an article's text is stored.
const EventContentExtracted = "content.extracted"

// Event represents the payload published downstream.
type Event struct {
	Type        string         `json:"type"`
	Content     domain.Content `json:"content"`
	PublishedAt time.Time      `json:"published_at"`
}

// NewEvent wraps stored content in a content.extracted event.
func NewEvent(c domain.Content) Event {
	return Event{
		Type:        EventContentExtracted,
		Content:     c,
		PublishedAt: time.Now().UTC(),
	}
}

// attributes are the routing fields copied onto queue message metadata.
func (e Event) attributes() map[string]string {
	out := map[string]string{"event_type": e.Type}
	if e.Content.BaseURL != "" {
		out["base_url"] = e.Content.BaseURL
	}
	return out
}

// body is the JSON payload queue sinks carry.
func (e Event) body() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(raw), nil
}
