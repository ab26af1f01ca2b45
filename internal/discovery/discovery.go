// Package discovery turns news search results into pending scrape candidates.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/Adda-Baaj/newsscrape/internal/storage"
	"github.com/Adda-Baaj/newsscrape/pkg/search"
)

const (
	defaultMarket = "en-us"
	defaultCount  = 100
)

// Options configures the query grid and the per-query result size.
type Options struct {
	Subjects   []string
	Qualifiers []string
	Market     string
	Count      int
}

// Stage searches every subject/qualifier pair and stores unseen results.
type Stage struct {
	searcher   search.Searcher
	candidates storage.CandidateStore
	contents   storage.ContentStore
	opts       Options
	log        logger.Logger
}

// New wires a discovery stage against the given store.
func New(searcher search.Searcher, store storage.Store, opts Options, log logger.Logger) *Stage {
	if opts.Market == "" {
		opts.Market = defaultMarket
	}
	if opts.Count <= 0 {
		opts.Count = defaultCount
	}
	s := &Stage{
		searcher: searcher,
		opts:     opts,
		log:      logger.Ensure(log),
	}
	if store != nil {
		s.candidates = store.Candidates()
		s.contents = store.Contents()
	}
	return s
}

// Discover runs every query in order and returns the candidates it inserted.
// A search or store failure stops the run; batches already written stay.
func (s *Stage) Discover(ctx context.Context) ([]domain.Candidate, error) {
	if s == nil || s.searcher == nil || s.candidates == nil {
		return nil, errors.New("discovery stage is not initialized")
	}

	queries := Queries(s.opts.Subjects, s.opts.Qualifiers)
	var inserted []domain.Candidate
	skipped := 0

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		results, err := s.searcher.Search(ctx, q, s.opts.Market, s.opts.Count)
		if err != nil {
			return inserted, fmt.Errorf("search %q: %w", q, err)
		}

		batch, dup, err := s.newCandidates(ctx, results)
		if err != nil {
			return inserted, fmt.Errorf("dedup results for %q: %w", q, err)
		}
		skipped += dup

		if len(batch) > 0 {
			saved, err := s.candidates.InsertMany(ctx, batch)
			if err != nil {
				return inserted, fmt.Errorf("insert candidates for %q: %w", q, err)
			}
			inserted = append(inserted, saved...)
		}

		s.log.DebugObj("search query processed", "discovery_query", map[string]any{
			"query":    q,
			"results":  len(results),
			"inserted": len(batch),
			"skipped":  dup,
		})
	}

	s.log.InfoObj("discovery completed", "discovery_summary", map[string]any{
		"queries":  len(queries),
		"inserted": len(inserted),
		"skipped":  skipped,
	})
	return inserted, nil
}

// newCandidates drops results whose name is already stored or already taken
// earlier in the same batch.
func (s *Stage) newCandidates(ctx context.Context, results []domain.SearchResult) ([]domain.Candidate, int, error) {
	var batch []domain.Candidate
	seen := make(map[string]struct{}, len(results))
	skipped := 0

	for _, r := range results {
		if _, dup := seen[r.Name]; dup {
			skipped++
			continue
		}
		exists, err := s.known(ctx, r.Name)
		if err != nil {
			return nil, 0, err
		}
		if exists {
			skipped++
			continue
		}
		seen[r.Name] = struct{}{}
		batch = append(batch, FromResult(r))
	}
	return batch, skipped, nil
}

func (s *Stage) known(ctx context.Context, name string) (bool, error) {
	n, err := s.candidates.Count(ctx, storage.ByName(name))
	if err != nil || n > 0 {
		return n > 0, err
	}
	if s.contents == nil {
		return false, nil
	}
	n, err = s.contents.Count(ctx, storage.ByName(name))
	return n > 0, err
}

// Queries builds one query per (subject, qualifier) pair, subjects outermost.
// An empty qualifier yields the bare subject.
func Queries(subjects, qualifiers []string) []string {
	if len(qualifiers) == 0 {
		qualifiers = []string{""}
	}
	out := make([]string, 0, len(subjects)*len(qualifiers))
	for _, subject := range subjects {
		for _, qualifier := range qualifiers {
			out = append(out, strings.TrimSpace(subject+" "+qualifier))
		}
	}
	return out
}

// FromResult converts a search hit into a pending candidate.
func FromResult(r domain.SearchResult) domain.Candidate {
	return domain.Candidate{
		Name:        r.Name,
		URL:         strings.ReplaceAll(r.URL, " ", ""),
		PublishedAt: r.PublishedAt,
		Provider:    r.Provider,
		BaseURL:     BaseURL(r.URL),
		Scraped:     domain.StatusPending,
	}
}

// BaseURL returns the host portion starting at "www." and ending before the
// next "/", or "" when the URL has no "www.".
func BaseURL(raw string) string {
	start := strings.Index(raw, "www.")
	if start < 0 {
		return ""
	}
	rest := raw[start:]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		return rest[:end]
	}
	return rest
}
