package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/config"
	"github.com/Adda-Baaj/newsscrape/internal/discovery"
	"github.com/Adda-Baaj/newsscrape/internal/extract"
	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/Adda-Baaj/newsscrape/internal/scrape"
	"github.com/Adda-Baaj/newsscrape/internal/storage"
	"github.com/Adda-Baaj/newsscrape/pkg/publishers"
	"github.com/Adda-Baaj/newsscrape/pkg/search"
	"github.com/Adda-Baaj/newsscrape/pkg/siterules"
)

// Deps are the collaborators a Runner drives. Searcher may be nil when no
// search credential is configured; modes that discover then fail.
type Deps struct {
	Store     storage.Store
	Searcher  search.Searcher
	Extractor scrape.PageExtractor
	Publisher scrape.EventPublisher
}

// Summary reports what one run did.
type Summary struct {
	Mode       Mode
	Discovered int
	Reset      int
	Scrape     scrape.Stats
	Elapsed    time.Duration
}

// Runner executes one discovery/scrape run against a store.
type Runner struct {
	cfg      *config.Config
	deps     Deps
	fanout   *publishers.Fanout
	discover *discovery.Stage
	pipeline *scrape.Pipeline
	log      logger.Logger
}

// NewRunner builds a runner from configuration: storage backend, site rules,
// extractor, search client and the optional publishers file.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	table, err := loadSiteRules(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	log.InfoObj("site rules loaded", "site_rules_meta", map[string]any{
		"file":  cfg.SitesFile,
		"count": table.Len(),
		"hosts": table.Hosts(),
	})

	var searcher search.Searcher
	client, err := search.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, 0)
	switch {
	case errors.Is(err, search.ErrMissingAPIKey):
		log.WarnObj("search api key not set; discovery disabled", "search_endpoint", cfg.SearchEndpoint)
	case err != nil:
		return nil, fmt.Errorf("init search client: %w", err)
	default:
		searcher = client
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(ctx, storage.Options{
		Type:          cfg.StorageType,
		BBoltPath:     cfg.BBoltPath,
		SQLitePath:    cfg.SQLitePath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":        cfg.StorageType,
		"bbolt_path":  cfg.BBoltPath,
		"sqlite_path": cfg.SQLitePath,
		"database":    cfg.MongoDatabase,
	})

	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	extractor := extract.New(nil, table, extract.Options{Timeout: cfg.FetchTimeout, Headers: headers})

	var pub scrape.EventPublisher
	if fanout.Size() > 0 {
		pub = fanout
	}
	r := New(cfg, Deps{Store: store, Searcher: searcher, Extractor: extractor, Publisher: pub}, log)
	r.fanout = fanout
	return r, nil
}

// New wires a runner from already-built dependencies.
func New(cfg *config.Config, deps Deps, log logger.Logger) *Runner {
	log = logger.Ensure(log)
	if cfg == nil {
		cfg = &config.Config{}
	}

	opts := scrape.Options{
		Delay:         cfg.ScrapeDelay,
		ProgressEvery: cfg.ProgressEvery,
	}
	if cfg.ExistingContentPolicy == config.PolicyLeavePending {
		opts.ExistingPolicy = scrape.LeavePending
	}

	r := &Runner{
		cfg:      cfg,
		deps:     deps,
		pipeline: scrape.New(deps.Extractor, deps.Store, deps.Publisher, opts, log),
		log:      log,
	}
	if deps.Searcher != nil {
		r.discover = discovery.New(deps.Searcher, deps.Store, discovery.Options{
			Subjects:   cfg.Subjects,
			Qualifiers: cfg.Qualifiers,
			Market:     cfg.SearchMarket,
			Count:      cfg.SearchCount,
		}, log)
	}
	return r
}

// Run executes mode once and closes the store and publishers afterwards.
func (r *Runner) Run(ctx context.Context, mode Mode) (Summary, error) {
	defer r.close()
	return r.run(ctx, mode)
}

func (r *Runner) run(ctx context.Context, mode Mode) (Summary, error) {
	start := time.Now()
	sum := Summary{Mode: mode}

	if r == nil || r.deps.Store == nil {
		return sum, fmt.Errorf("runner is not initialized")
	}
	p, err := mode.plan()
	if err != nil {
		return sum, err
	}
	// Checked before any collection is touched.
	if p.discover && r.discover == nil {
		return sum, fmt.Errorf("%s mode needs search: %w", mode, search.ErrMissingAPIKey)
	}

	r.log.InfoObj("run started", "run_meta", map[string]any{
		"mode":       mode.String(),
		"started_at": start.UTC(),
	})

	if p.dropCandidates {
		if err := r.deps.Store.Candidates().Drop(ctx); err != nil {
			return sum, fmt.Errorf("drop candidates: %w", err)
		}
	}
	if p.dropContent {
		if err := r.deps.Store.Contents().Drop(ctx); err != nil {
			return sum, fmt.Errorf("drop content: %w", err)
		}
	}
	if p.dropCandidates || p.dropContent {
		r.log.InfoObj("collections cleared", "reset_meta", map[string]any{
			"candidates": p.dropCandidates,
			"content":    p.dropContent,
		})
	}
	if p.resetStatus {
		n, err := r.deps.Store.Candidates().ResetScraped(ctx)
		if err != nil {
			return sum, fmt.Errorf("reset candidate status: %w", err)
		}
		sum.Reset = n
	}

	if p.discover {
		found, err := r.discover.Discover(ctx)
		sum.Discovered = len(found)
		if err != nil {
			return sum, fmt.Errorf("discovery: %w", err)
		}
	}

	pending, err := r.pipeline.Pending(ctx)
	if err != nil {
		return sum, fmt.Errorf("load pending candidates: %w", err)
	}
	r.log.InfoObj("scrape starting", "scrape_meta", map[string]any{
		"pending":    len(pending),
		"publishers": r.fanout.Size(),
	})

	sum.Scrape, err = r.pipeline.Run(ctx, pending)
	sum.Elapsed = time.Since(start)
	if err != nil {
		return sum, fmt.Errorf("scrape: %w", err)
	}

	r.log.InfoObj("run completed", "run_summary", map[string]any{
		"mode":             mode.String(),
		"discovered":       sum.Discovered,
		"reset":            sum.Reset,
		"processed":        sum.Scrape.Processed,
		"extracted":        sum.Scrape.Extracted,
		"empty":            sum.Scrape.Empty,
		"fetch_failed":     sum.Scrape.FetchFailed,
		"skipped_existing": sum.Scrape.SkippedExisting,
		"published":        sum.Scrape.Published,
		"needs_rules":      sum.Scrape.NeedsRules,
		"elapsed_ms":       sum.Elapsed.Milliseconds(),
	})
	return sum, nil
}

// close releases the store and publishers, logging any errors encountered.
func (r *Runner) close() {
	if r == nil {
		return
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if r.deps.Store == nil {
		return
	}
	if err := r.deps.Store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}

func loadSiteRules(path string) (*siterules.Table, error) {
	if path == "" {
		return siterules.Default(), nil
	}
	table, err := siterules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load site rules: %w", err)
	}
	return table, nil
}

// buildFanout returns an empty fanout when no publishers file is configured.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}
	enabled, err := publishers.LoadEnabled(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	pubs, err := publishers.DefaultBuilders().Build(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}
