package storage

import (
	"context"
	"strconv"
	"sync"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
)

// memoryStore keeps both collections in process memory. Used for dry runs and tests.
type memoryStore struct {
	mu         sync.Mutex
	nextID     int
	candidates []domain.Candidate
	contents   []domain.Content
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Candidates() CandidateStore { return memCandidates{m} }
func (m *memoryStore) Contents() ContentStore     { return memContents{m} }
func (m *memoryStore) Close() error               { return nil }

func (m *memoryStore) newID() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

type memCandidates struct{ m *memoryStore }

func (s memCandidates) Count(ctx context.Context, f Filter) (int, error) {
	found, err := s.Find(ctx, f)
	return len(found), err
}

func (s memCandidates) Find(_ context.Context, f Filter) ([]domain.Candidate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var out []domain.Candidate
	for _, c := range s.m.candidates {
		if f.matchesCandidate(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memCandidates) InsertMany(_ context.Context, cs []domain.Candidate) ([]domain.Candidate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	out := make([]domain.Candidate, len(cs))
	for i, c := range cs {
		c.ID = s.m.newID()
		out[i] = c
	}
	s.m.candidates = append(s.m.candidates, out...)
	return out, nil
}

func (s memCandidates) SetScraped(_ context.Context, id string, status domain.ScrapeStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i := range s.m.candidates {
		if s.m.candidates[i].ID == id {
			s.m.candidates[i].Scraped = status
			return nil
		}
	}
	return ErrNotFound
}

func (s memCandidates) ResetScraped(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	n := 0
	for i := range s.m.candidates {
		if s.m.candidates[i].Scraped != domain.StatusPending {
			s.m.candidates[i].Scraped = domain.StatusPending
			n++
		}
	}
	return n, nil
}

func (s memCandidates) Drop(context.Context) error {
	s.m.mu.Lock()
	s.m.candidates = nil
	s.m.mu.Unlock()
	return nil
}

type memContents struct{ m *memoryStore }

func (s memContents) Count(ctx context.Context, f Filter) (int, error) {
	found, err := s.Find(ctx, f)
	return len(found), err
}

func (s memContents) Find(_ context.Context, f Filter) ([]domain.Content, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var out []domain.Content
	for _, c := range s.m.contents {
		if f.matchesContent(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memContents) InsertOne(_ context.Context, c domain.Content) (domain.Content, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	c.ID = s.m.newID()
	s.m.contents = append(s.m.contents, c)
	return c, nil
}

func (s memContents) Drop(context.Context) error {
	s.m.mu.Lock()
	s.m.contents = nil
	s.m.mu.Unlock()
	return nil
}
