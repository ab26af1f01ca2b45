package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain contains core models shared by discovery, scraping, and storage.

// ErrInvalidTransition is returned when a scrape status change is not allowed.
var ErrInvalidTransition = errors.New("invalid scrape status transition")

// ScrapeStatus tracks whether a candidate has had its one scrape attempt.
type ScrapeStatus int

const (
	StatusPending ScrapeStatus = iota
	StatusDone
)

// String returns the persisted form of the status.
func (s ScrapeStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseScrapeStatus accepts the persisted names plus the legacy y/n flags.
func ParseScrapeStatus(raw string) (ScrapeStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "n":
		return StatusPending, nil
	case "done", "y":
		return StatusDone, nil
	default:
		return StatusPending, fmt.Errorf("unknown scrape status %q", raw)
	}
}

// Transition validates a status change. Pending may only move to done.
func (s ScrapeStatus) Transition(to ScrapeStatus) (ScrapeStatus, error) {
	if s == StatusPending && to == StatusDone {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
}

// MarshalText implements encoding.TextMarshaler.
func (s ScrapeStatus) MarshalText() ([]byte, error) {
	if s != StatusPending && s != StatusDone {
		return nil, fmt.Errorf("unknown scrape status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ScrapeStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseScrapeStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SearchResult is one record returned by the news search capability.
type SearchResult struct {
	Name        string
	URL         string
	PublishedAt string
	Provider    string
}

// Candidate is an article reference discovered by search.
type Candidate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	PublishedAt string       `json:"pub_date"`
	Provider    string       `json:"provider"`
	BaseURL     string       `json:"base_url"`
	Scraped     ScrapeStatus `json:"scraped"`
}

// Content is the extracted body text of a successfully scraped article.
type Content struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"pub_date"`
	Provider    string    `json:"provider"`
	BaseURL     string    `json:"base_url"`
	Text        string    `json:"text"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// NewContent builds the content record for a candidate and its extracted text.
func NewContent(c Candidate, text string, now time.Time) Content {
	return Content{
		Name:        c.Name,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
		Provider:    c.Provider,
		BaseURL:     c.BaseURL,
		Text:        text,
		ScrapedAt:   now.UTC(),
	}
}
