package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Adda-Baaj/newsscrape/internal/config"
	"github.com/Adda-Baaj/newsscrape/internal/domain"
	"github.com/Adda-Baaj/newsscrape/internal/storage"
	"github.com/Adda-Baaj/newsscrape/pkg/search"
)

type fakeSearcher struct {
	results []domain.SearchResult
	calls   int
}

func (f *fakeSearcher) Search(context.Context, string, string, int) ([]domain.SearchResult, error) {
	f.calls++
	return f.results, nil
}

type fakeExtractor struct {
	text map[string]string
}

func (f fakeExtractor) ExtractPage(_ context.Context, c domain.Candidate) (string, error) {
	return f.text[c.Name], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Subjects:              []string{"joe biden"},
		Qualifiers:            []string{""},
		SearchMarket:          "en-us",
		SearchCount:           100,
		ProgressEvery:         100,
		ExistingContentPolicy: config.PolicyMarkDone,
	}
}

// seedStore leaves "a" scraped with content and "b" pending.
func seedStore(t *testing.T) storage.Store {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	saved, err := store.Candidates().InsertMany(ctx, []domain.Candidate{
		{Name: "a", URL: "https://www.a.com/1", BaseURL: "www.a.com"},
		{Name: "b", URL: "https://www.b.com/1", BaseURL: "www.b.com"},
	})
	if err != nil {
		t.Fatalf("seed candidates: %v", err)
	}
	if err := store.Candidates().SetScraped(ctx, saved[0].ID, domain.StatusDone); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	if _, err := store.Contents().InsertOne(ctx, domain.Content{Name: "a", Text: "old a"}); err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return store
}

func hits(names ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(names))
	for i, n := range names {
		out[i] = domain.SearchResult{Name: n, URL: "https://www." + n + ".com/1"}
	}
	return out
}

func TestResetClearsBothCollectionsBeforeDiscovery(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	searcher := &fakeSearcher{results: hits("a", "b", "c")}
	ex := fakeExtractor{text: map[string]string{"a": "new a", "c": "new c"}}

	sum, err := New(testConfig(), Deps{Store: store, Searcher: searcher, Extractor: ex}, nil).Run(ctx, ModeReset)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Discovered != 3 {
		t.Fatalf("expected every result inserted with no dedup skips, got %d", sum.Discovered)
	}
	if n, _ := store.Candidates().Count(ctx, storage.Filter{}); n != 3 {
		t.Fatalf("expected 3 candidates, got %d", n)
	}
	found, _ := store.Contents().Find(ctx, storage.ByName("a"))
	if len(found) != 1 || found[0].Text != "new a" {
		t.Fatalf("expected fresh content for a, got %+v", found)
	}
	if sum.Scrape.Processed != 3 || sum.Scrape.Extracted != 2 || sum.Scrape.Empty != 1 {
		t.Fatalf("unexpected scrape stats %+v", sum.Scrape)
	}
}

func TestRescrapeReplaysDoneCandidates(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	searcher := &fakeSearcher{results: hits("z")}
	ex := fakeExtractor{text: map[string]string{"a": "new a"}}

	sum, err := New(testConfig(), Deps{Store: store, Searcher: searcher, Extractor: ex}, nil).Run(ctx, ModeRescrape)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if searcher.calls != 0 || sum.Discovered != 0 {
		t.Fatalf("rescrape must skip discovery")
	}
	if sum.Reset != 1 {
		t.Fatalf("expected one candidate reset to pending, got %d", sum.Reset)
	}
	if n, _ := store.Candidates().Count(ctx, storage.ByName("a")); n != 1 {
		t.Fatalf("rescrape must not duplicate candidates, got %d", n)
	}
	found, _ := store.Contents().Find(ctx, storage.Filter{})
	if len(found) != 1 || found[0].Name != "a" || found[0].Text != "new a" {
		t.Fatalf("expected only re-scraped content for a, got %+v", found)
	}
	if n, _ := store.Candidates().Count(ctx, storage.ByStatus(domain.StatusPending)); n != 0 {
		t.Fatalf("expected all candidates done, %d pending", n)
	}
}

func TestResumeScrapesPendingOnly(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	searcher := &fakeSearcher{results: hits("z")}
	ex := fakeExtractor{text: map[string]string{"a": "should not fetch", "b": "text b"}}

	sum, err := New(testConfig(), Deps{Store: store, Searcher: searcher, Extractor: ex}, nil).Run(ctx, ModeResume)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatalf("resume must skip discovery")
	}
	if sum.Scrape.Processed != 1 || sum.Scrape.Extracted != 1 {
		t.Fatalf("unexpected stats %+v", sum.Scrape)
	}
	found, _ := store.Contents().Find(ctx, storage.ByName("a"))
	if len(found) != 1 || found[0].Text != "old a" {
		t.Fatalf("content for a should be untouched, got %+v", found)
	}
}

func TestFreshRunDiscoversThenScrapes(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	searcher := &fakeSearcher{results: hits("a", "c")}
	ex := fakeExtractor{text: map[string]string{"b": "text b", "c": "text c"}}

	sum, err := New(testConfig(), Deps{Store: store, Searcher: searcher, Extractor: ex}, nil).Run(ctx, ModeFresh)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Discovered != 1 || sum.Scrape.Processed != 2 || sum.Scrape.Extracted != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestDiscoveryWithoutCredentialFailsBeforeMutation(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	_, err := New(testConfig(), Deps{Store: store, Extractor: fakeExtractor{}}, nil).Run(ctx, ModeReset)
	if !errors.Is(err, search.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if n, _ := store.Candidates().Count(ctx, storage.Filter{}); n != 2 {
		t.Fatalf("store must be untouched, got %d candidates", n)
	}
	if n, _ := store.Contents().Count(ctx, storage.Filter{}); n != 1 {
		t.Fatalf("store must be untouched, got %d content records", n)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	_, err := New(testConfig(), Deps{Store: store, Extractor: fakeExtractor{}}, nil).Run(ctx, Mode(42))
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if n, _ := store.Candidates().Count(ctx, storage.Filter{}); n != 2 {
		t.Fatalf("store must be untouched, got %d candidates", n)
	}
}
