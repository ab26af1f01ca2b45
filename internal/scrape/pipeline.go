// Package scrape fetches pending candidates and stores their article text.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/Adda-Baaj/newsscrape/internal/storage"
	"github.com/Adda-Baaj/newsscrape/pkg/publishers"
)

const (
	defaultDelay         = 250 * time.Millisecond
	defaultProgressEvery = 100
)

// ExistingContentPolicy decides what happens to a pending candidate whose
// name already has stored content.
type ExistingContentPolicy int

const (
	// MarkDone finishes the candidate so later runs stop revisiting it.
	MarkDone ExistingContentPolicy = iota
	// LeavePending keeps the candidate pending, as older runs of the tool did.
	LeavePending
)

// PageExtractor fetches a candidate's page and returns its article text.
type PageExtractor interface {
	ExtractPage(ctx context.Context, c domain.Candidate) (string, error)
}

// EventPublisher publishes stored content downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Options tunes throttling, progress reporting and the existing-content policy.
type Options struct {
	Delay          time.Duration
	ProgressEvery  int
	ExistingPolicy ExistingContentPolicy
	Now            func() time.Time
}

// Stats summarizes one pipeline run.
type Stats struct {
	Processed       int
	Extracted       int
	Empty           int
	FetchFailed     int
	SkippedExisting int
	Published       int
	// NeedsRules lists, sorted and deduplicated, the hosts of candidates whose
	// content already existed.
	NeedsRules []string
}

// Pipeline scrapes candidates one at a time.
type Pipeline struct {
	extractor  PageExtractor
	candidates storage.CandidateStore
	contents   storage.ContentStore
	publisher  EventPublisher
	opts       Options
	log        logger.Logger
}

// New builds a pipeline. publisher may be nil.
func New(extractor PageExtractor, store storage.Store, publisher EventPublisher, opts Options, log logger.Logger) *Pipeline {
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	p := &Pipeline{
		extractor: extractor,
		publisher: publisher,
		opts:      opts,
		log:       logger.Ensure(log),
	}
	if store != nil {
		p.candidates = store.Candidates()
		p.contents = store.Contents()
	}
	return p
}

// DefaultOptions returns the production throttle and progress settings.
func DefaultOptions() Options {
	return Options{Delay: defaultDelay, ProgressEvery: defaultProgressEvery}
}

// Pending loads every candidate still waiting to be scraped, in insertion order.
func (p *Pipeline) Pending(ctx context.Context) ([]domain.Candidate, error) {
	if p == nil || p.candidates == nil {
		return nil, errors.New("scrape pipeline is not initialized")
	}
	return p.candidates.Find(ctx, storage.ByStatus(domain.StatusPending))
}

// Run scrapes the candidates in order. Fetch failures are logged and count as
// an empty result; store failures stop the run. Cancelling ctx stops the run
// and leaves the current candidate pending.
func (p *Pipeline) Run(ctx context.Context, pending []domain.Candidate) (stats Stats, err error) {
	if p == nil || p.extractor == nil || p.candidates == nil || p.contents == nil {
		return stats, errors.New("scrape pipeline is not initialized")
	}

	needsRules := map[string]struct{}{}
	defer func() {
		stats.NeedsRules = sortedKeys(needsRules)
	}()

	for i, c := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := p.scrapeOne(ctx, c, &stats, needsRules); err != nil {
			return stats, err
		}
		stats.Processed++

		if stats.Processed%p.opts.ProgressEvery == 0 {
			p.log.InfoObj("scrape progress", "scrape_progress", map[string]any{
				"processed": stats.Processed,
				"total":     len(pending),
				"extracted": stats.Extracted,
			})
		}

		if p.opts.Delay > 0 && i < len(pending)-1 {
			timer := time.NewTimer(p.opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return stats, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return stats, nil
}

func (p *Pipeline) scrapeOne(ctx context.Context, c domain.Candidate, stats *Stats, needsRules map[string]struct{}) error {
	existing, err := p.contents.Count(ctx, storage.ByName(c.Name))
	if err != nil {
		return fmt.Errorf("check content for %q: %w", c.Name, err)
	}
	if existing > 0 {
		stats.SkippedExisting++
		if c.BaseURL != "" {
			needsRules[c.BaseURL] = struct{}{}
		}
		p.log.DebugObj("content already stored", "scrape_skip", map[string]any{
			"name":     c.Name,
			"base_url": c.BaseURL,
		})
		if p.opts.ExistingPolicy == MarkDone {
			return p.markDone(ctx, c)
		}
		return nil
	}

	text, err := p.extractor.ExtractPage(ctx, c)
	// An interrupted fetch leaves the candidate pending for the next resume.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		stats.FetchFailed++
		p.log.WarnObj("article fetch failed", "scrape_error", map[string]any{
			"name":  c.Name,
			"url":   c.URL,
			"error": err.Error(),
		})
		text = ""
	}

	if err := p.markDone(ctx, c); err != nil {
		return err
	}

	if text == "" {
		stats.Empty++
		return nil
	}

	saved, err := p.contents.InsertOne(ctx, domain.NewContent(c, text, p.opts.Now()))
	if err != nil {
		return fmt.Errorf("store content for %q: %w", c.Name, err)
	}
	stats.Extracted++
	p.publish(ctx, saved, stats)
	return nil
}

func (p *Pipeline) markDone(ctx context.Context, c domain.Candidate) error {
	next, err := c.Scraped.Transition(domain.StatusDone)
	if err != nil {
		return fmt.Errorf("mark %q done: %w", c.Name, err)
	}
	if err := p.candidates.SetScraped(ctx, c.ID, next); err != nil {
		return fmt.Errorf("mark %q done: %w", c.Name, err)
	}
	return nil
}

// publish never fails the run; delivery errors are only logged.
func (p *Pipeline) publish(ctx context.Context, c domain.Content, stats *Stats) {
	if p.publisher == nil {
		return
	}
	n, err := p.publisher.Publish(ctx, publishers.NewEvent(c))
	if n > 0 {
		stats.Published++
	}
	if err != nil {
		p.log.ErrorObj("content event publish failed", "publish_error", map[string]any{
			"name":       c.Name,
			"successful": n,
			"error":      err.Error(),
		})
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
