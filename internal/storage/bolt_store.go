package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	candidateBucket      = "candidates"
	candidateIndexBucket = "candidates_by_name"
	contentBucket        = "content"
	contentIndexBucket   = "content_by_name"
	keyBytes             = 8
)

// boltStore implements a Store backed by BoltDB. Records are JSON values keyed
// by a big-endian bucket sequence, so cursor order is insertion order. A
// second bucket per collection maps each name to the keys carrying it.
type boltStore struct {
	db         *bolt.DB
	candidates boltCandidates
	contents   boltCollection[domain.Content]
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{candidateBucket, candidateIndexBucket, contentBucket, contentIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{
		db: db,
		candidates: boltCandidates{boltCollection[domain.Candidate]{
			db:     db,
			bucket: []byte(candidateBucket),
			index:  []byte(candidateIndexBucket),
			nameOf: func(c domain.Candidate) string { return c.Name },
			withID: func(c domain.Candidate, id string) domain.Candidate { c.ID = id; return c },
			match:  Filter.matchesCandidate,
		}},
		contents: boltCollection[domain.Content]{
			db:     db,
			bucket: []byte(contentBucket),
			index:  []byte(contentIndexBucket),
			nameOf: func(c domain.Content) string { return c.Name },
			withID: func(c domain.Content, id string) domain.Content { c.ID = id; return c },
			match:  Filter.matchesContent,
		},
	}, nil
}

func (b *boltStore) Candidates() CandidateStore { return b.candidates }
func (b *boltStore) Contents() ContentStore     { return b.contents }

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// boltCollection stores one record type in a data bucket plus a name index.
type boltCollection[T any] struct {
	db     *bolt.DB
	bucket []byte
	index  []byte
	nameOf func(T) string
	withID func(T, string) T
	match  func(Filter, T) bool
}

func (c boltCollection[T]) Count(ctx context.Context, f Filter) (int, error) {
	if f.Name != nil && f.Scraped == nil {
		n := 0
		err := c.db.View(func(tx *bolt.Tx) error {
			n = len(tx.Bucket(c.index).Get(indexKey(*f.Name))) / keyBytes
			return nil
		})
		return n, err
	}
	found, err := c.Find(ctx, f)
	return len(found), err
}

func (c boltCollection[T]) Find(_ context.Context, f Filter) ([]T, error) {
	var out []T
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(c.bucket)
		if data == nil {
			return fmt.Errorf("%s bucket missing", c.bucket)
		}

		visit := func(k, v []byte) error {
			rec, err := c.decode(k, v)
			if err != nil {
				return err
			}
			if c.match(f, rec) {
				out = append(out, rec)
			}
			return nil
		}

		if f.Name != nil {
			keys := tx.Bucket(c.index).Get(indexKey(*f.Name))
			for i := 0; i+keyBytes <= len(keys); i += keyBytes {
				k := keys[i : i+keyBytes]
				if v := data.Get(k); v != nil {
					if err := visit(k, v); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return data.ForEach(visit)
	})
	return out, err
}

func (c boltCollection[T]) insert(recs []T) ([]T, error) {
	out := make([]T, 0, len(recs))
	err := c.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(c.bucket)
		index := tx.Bucket(c.index)
		for _, rec := range recs {
			seq, err := data.NextSequence()
			if err != nil {
				return err
			}
			key := encodeKey(seq)
			rec = c.withID(rec, strconv.FormatUint(seq, 10))

			raw, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			if err := data.Put(key, raw); err != nil {
				return err
			}

			name := indexKey(c.nameOf(rec))
			existing := index.Get(name)
			keys := make([]byte, 0, len(existing)+keyBytes)
			keys = append(keys, existing...)
			keys = append(keys, key...)
			if err := index.Put(name, keys); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c boltCollection[T]) InsertOne(_ context.Context, rec T) (T, error) {
	out, err := c.insert([]T{rec})
	if err != nil {
		var zero T
		return zero, err
	}
	return out[0], nil
}

func (c boltCollection[T]) Drop(context.Context) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{c.bucket, c.index} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c boltCollection[T]) decode(k, v []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(v, &rec); err != nil {
		return rec, fmt.Errorf("decode record %x: %w", k, err)
	}
	return rec, nil
}

// boltCandidates adds the status updates only candidates support.
type boltCandidates struct {
	boltCollection[domain.Candidate]
}

func (c boltCandidates) InsertMany(_ context.Context, cs []domain.Candidate) ([]domain.Candidate, error) {
	return c.insert(cs)
}

func (c boltCandidates) SetScraped(_ context.Context, id string, status domain.ScrapeStatus) error {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	key := encodeKey(seq)

	return c.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(c.bucket)
		v := data.Get(key)
		if v == nil {
			return ErrNotFound
		}
		rec, err := c.decode(key, v)
		if err != nil {
			return err
		}
		rec.Scraped = status
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return data.Put(key, raw)
	})
}

func (c boltCandidates) ResetScraped(context.Context) (int, error) {
	changed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(c.bucket)
		updates := map[string][]byte{}
		err := data.ForEach(func(k, v []byte) error {
			rec, err := c.decode(k, v)
			if err != nil {
				return err
			}
			if rec.Scraped == domain.StatusPending {
				return nil
			}
			rec.Scraped = domain.StatusPending
			raw, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			updates[string(k)] = raw
			return nil
		})
		if err != nil {
			return err
		}
		// Puts are deferred until ForEach returns.
		for k, raw := range updates {
			if err := data.Put([]byte(k), raw); err != nil {
				return err
			}
		}
		changed = len(updates)
		return nil
	})
	return changed, err
}

func encodeKey(seq uint64) []byte {
	buf := make([]byte, keyBytes)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// indexKey prefixes names so an empty name is still a valid bolt key.
func indexKey(name string) []byte {
	return append([]byte{'n'}, name...)
}
