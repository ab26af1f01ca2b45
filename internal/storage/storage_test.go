package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	out := map[string]Store{"memory": NewMemoryStore()}

	bolt, err := NewStore(ctx, Options{Type: TypeBBolt, BBoltPath: filepath.Join(dir, "news.db")})
	if err != nil {
		t.Fatalf("open bbolt: %v", err)
	}
	out["bbolt"] = bolt

	sqlite, err := NewStore(ctx, Options{Type: TypeSQLite, SQLitePath: filepath.Join(dir, "news.sqlite")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	out["sqlite"] = sqlite

	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func TestCandidateLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			cands := store.Candidates()

			inserted, err := cands.InsertMany(ctx, []domain.Candidate{
				{Name: "a", URL: "https://www.a.com/1", BaseURL: "www.a.com"},
				{Name: "b", URL: "https://www.b.com/1", BaseURL: "www.b.com"},
				{Name: "", URL: "https://c.com/1"},
			})
			if err != nil {
				t.Fatalf("InsertMany: %v", err)
			}
			if len(inserted) != 3 || inserted[0].ID == "" || inserted[0].ID == inserted[1].ID {
				t.Fatalf("expected distinct ids, got %+v", inserted)
			}

			if n, err := cands.Count(ctx, ByName("a")); err != nil || n != 1 {
				t.Fatalf("Count(a) = %d, %v", n, err)
			}
			if n, err := cands.Count(ctx, ByName("")); err != nil || n != 1 {
				t.Fatalf("Count(empty name) = %d, %v", n, err)
			}
			if n, err := cands.Count(ctx, ByName("zzz")); err != nil || n != 0 {
				t.Fatalf("Count(zzz) = %d, %v", n, err)
			}

			if err := cands.SetScraped(ctx, inserted[1].ID, domain.StatusDone); err != nil {
				t.Fatalf("SetScraped: %v", err)
			}

			pending, err := cands.Find(ctx, ByStatus(domain.StatusPending))
			if err != nil {
				t.Fatalf("Find pending: %v", err)
			}
			if len(pending) != 2 || pending[0].Name != "a" || pending[1].Name != "" {
				t.Fatalf("expected pending a then empty name in insertion order, got %+v", pending)
			}
			if pending[0].BaseURL != "www.a.com" {
				t.Fatalf("base url not round-tripped: %+v", pending[0])
			}

			reset, err := cands.ResetScraped(ctx)
			if err != nil || reset != 1 {
				t.Fatalf("ResetScraped = %d, %v", reset, err)
			}
			if n, _ := cands.Count(ctx, ByStatus(domain.StatusPending)); n != 3 {
				t.Fatalf("expected all pending after reset, got %d", n)
			}

			if err := cands.Drop(ctx); err != nil {
				t.Fatalf("Drop: %v", err)
			}
			if n, _ := cands.Count(ctx, Filter{}); n != 0 {
				t.Fatalf("expected empty collection after drop, got %d", n)
			}
		})
	}
}

func TestSetScrapedUnknownID(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Candidates().SetScraped(ctx, "999", domain.StatusDone)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestContentInsertAndFind(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			contents := store.Contents()

			saved, err := contents.InsertOne(ctx, domain.Content{Name: "a", URL: "u", BaseURL: "www.a.com", Text: "hello", ScrapedAt: at})
			if err != nil {
				t.Fatalf("InsertOne: %v", err)
			}
			if saved.ID == "" {
				t.Fatalf("expected id assigned")
			}
			if _, err := contents.InsertOne(ctx, domain.Content{Name: "b", Text: "world", ScrapedAt: at}); err != nil {
				t.Fatalf("InsertOne b: %v", err)
			}

			found, err := contents.Find(ctx, ByName("a"))
			if err != nil || len(found) != 1 {
				t.Fatalf("Find(a) = %+v, %v", found, err)
			}
			if found[0].Text != "hello" || !found[0].ScrapedAt.Equal(at) {
				t.Fatalf("unexpected content %+v", found[0])
			}
			if n, _ := contents.Count(ctx, Filter{}); n != 2 {
				t.Fatalf("expected 2 records, got %d", n)
			}

			if err := contents.Drop(ctx); err != nil {
				t.Fatalf("Drop: %v", err)
			}
			if n, _ := contents.Count(ctx, Filter{}); n != 0 {
				t.Fatalf("expected empty content after drop, got %d", n)
			}
			// The candidate collection is untouched by a content drop.
			if _, err := store.Candidates().Count(ctx, Filter{}); err != nil {
				t.Fatalf("candidates after content drop: %v", err)
			}
		})
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore(context.Background(), Options{Type: "redis"}); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
	if _, err := NewStore(context.Background(), Options{Type: TypeSQLite}); err == nil {
		t.Fatalf("expected error for sqlite without path")
	}
	if _, err := NewStore(context.Background(), Options{Type: TypeMongo}); err == nil {
		t.Fatalf("expected error for mongo without uri")
	}
}
