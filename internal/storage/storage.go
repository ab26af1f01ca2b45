package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
)

// Package storage persists discovered candidates and extracted content.

// ErrNotFound is returned when an update targets a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Filter narrows Count and Find. Nil fields match everything.
type Filter struct {
	Name    *string
	Scraped *domain.ScrapeStatus
}

// ByName matches records with exactly this name.
func ByName(name string) Filter { return Filter{Name: &name} }

// ByStatus matches candidates in the given scrape status.
func ByStatus(s domain.ScrapeStatus) Filter { return Filter{Scraped: &s} }

func (f Filter) matchesCandidate(c domain.Candidate) bool {
	if f.Name != nil && c.Name != *f.Name {
		return false
	}
	if f.Scraped != nil && c.Scraped != *f.Scraped {
		return false
	}
	return true
}

// matchesContent ignores Scraped; content records have no status.
func (f Filter) matchesContent(c domain.Content) bool {
	return f.Name == nil || c.Name == *f.Name
}

// CandidateStore is the collection of discovered articles.
type CandidateStore interface {
	Count(ctx context.Context, f Filter) (int, error)
	Find(ctx context.Context, f Filter) ([]domain.Candidate, error)
	// InsertMany stores the batch and returns it with IDs assigned.
	InsertMany(ctx context.Context, cs []domain.Candidate) ([]domain.Candidate, error)
	SetScraped(ctx context.Context, id string, status domain.ScrapeStatus) error
	// ResetScraped moves every candidate back to pending and reports how many changed.
	ResetScraped(ctx context.Context) (int, error)
	Drop(ctx context.Context) error
}

// ContentStore is the collection of extracted article texts.
type ContentStore interface {
	Count(ctx context.Context, f Filter) (int, error)
	Find(ctx context.Context, f Filter) ([]domain.Content, error)
	InsertOne(ctx context.Context, c domain.Content) (domain.Content, error)
	Drop(ctx context.Context) error
}

// Store groups the two collections behind one backend.
type Store interface {
	Candidates() CandidateStore
	Contents() ContentStore
	Close() error
}

// Backend names accepted by NewStore.
const (
	TypeMemory = "memory"
	TypeBBolt  = "bbolt"
	TypeSQLite = "sqlite"
	TypeMongo  = "mongo"
)

// Options selects and locates the storage backend.
type Options struct {
	Type          string
	BBoltPath     string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// NewStore creates the configured storage backend.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	typ := strings.TrimSpace(strings.ToLower(opts.Type))

	switch typ {
	case TypeMemory:
		return NewMemoryStore(), nil
	case "", TypeBBolt:
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.BBoltPath)
	case TypeSQLite:
		if strings.TrimSpace(opts.SQLitePath) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(ctx, opts.SQLitePath)
	case TypeMongo:
		if strings.TrimSpace(opts.MongoURI) == "" {
			return nil, fmt.Errorf("mongo storage requires a uri")
		}
		return openMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}
