package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names match the database layout earlier runs of the scraper created.
const (
	mongoCandidateCollection = "search_result"
	mongoContentCollection   = "news_content"
	mongoDefaultDatabase     = "news_search"
)

type candidateDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Name        string        `bson:"name"`
	URL         string        `bson:"url"`
	PublishedAt string        `bson:"pub_date"`
	Provider    string        `bson:"provider"`
	BaseURL     string        `bson:"base_url"`
	Scraped     string        `bson:"scraped"`
}

type contentDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Name        string        `bson:"name"`
	URL         string        `bson:"url"`
	PublishedAt string        `bson:"pub_date"`
	Provider    string        `bson:"provider"`
	BaseURL     string        `bson:"base_url"`
	Text        string        `bson:"text"`
	ScrapedAt   time.Time     `bson:"scraped_at"`
}

func toCandidateDoc(c domain.Candidate, id bson.ObjectID) candidateDoc {
	return candidateDoc{
		ID:          id,
		Name:        c.Name,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
		Provider:    c.Provider,
		BaseURL:     c.BaseURL,
		Scraped:     c.Scraped.String(),
	}
}

func (d candidateDoc) toDomain() (domain.Candidate, error) {
	status, err := domain.ParseScrapeStatus(d.Scraped)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("candidate %s: %w", d.ID.Hex(), err)
	}
	return domain.Candidate{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		URL:         d.URL,
		PublishedAt: d.PublishedAt,
		Provider:    d.Provider,
		BaseURL:     d.BaseURL,
		Scraped:     status,
	}, nil
}

func toContentDoc(c domain.Content, id bson.ObjectID) contentDoc {
	return contentDoc{
		ID:          id,
		Name:        c.Name,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
		Provider:    c.Provider,
		BaseURL:     c.BaseURL,
		Text:        c.Text,
		ScrapedAt:   c.ScrapedAt,
	}
}

func (d contentDoc) toDomain() domain.Content {
	return domain.Content{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		URL:         d.URL,
		PublishedAt: d.PublishedAt,
		Provider:    d.Provider,
		BaseURL:     d.BaseURL,
		Text:        d.Text,
		ScrapedAt:   d.ScrapedAt,
	}
}

// statusValues lists every stored spelling of a status, legacy flags included.
func statusValues(s domain.ScrapeStatus) []string {
	if s == domain.StatusDone {
		return []string{domain.StatusDone.String(), "y"}
	}
	return []string{domain.StatusPending.String(), "n"}
}

func candidateFilter(f Filter) bson.M {
	m := bson.M{}
	if f.Name != nil {
		m["name"] = *f.Name
	}
	if f.Scraped != nil {
		m["scraped"] = bson.M{"$in": statusValues(*f.Scraped)}
	}
	return m
}

func contentFilter(f Filter) bson.M {
	m := bson.M{}
	if f.Name != nil {
		m["name"] = *f.Name
	}
	return m
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func openMongo(ctx context.Context, uri, database string) (Store, error) {
	if database == "" {
		database = mongoDefaultDatabase
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &mongoStore{client: client, db: client.Database(database)}, nil
}

func (m *mongoStore) Candidates() CandidateStore {
	return mongoCandidates{m.db.Collection(mongoCandidateCollection)}
}

func (m *mongoStore) Contents() ContentStore {
	return mongoContents{m.db.Collection(mongoContentCollection)}
}

func (m *mongoStore) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func insertionOrder() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

type mongoCandidates struct{ coll *mongo.Collection }

func (s mongoCandidates) Count(ctx context.Context, f Filter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, candidateFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", mongoCandidateCollection, err)
	}
	return int(n), nil
}

func (s mongoCandidates) Find(ctx context.Context, f Filter) ([]domain.Candidate, error) {
	cur, err := s.coll.Find(ctx, candidateFilter(f), insertionOrder())
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", mongoCandidateCollection, err)
	}
	var docs []candidateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", mongoCandidateCollection, err)
	}

	out := make([]domain.Candidate, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s mongoCandidates) InsertMany(ctx context.Context, cs []domain.Candidate) ([]domain.Candidate, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	docs := make([]any, len(cs))
	out := make([]domain.Candidate, len(cs))
	for i, c := range cs {
		id := bson.NewObjectID()
		docs[i] = toCandidateDoc(c, id)
		c.ID = id.Hex()
		out[i] = c
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert %s: %w", mongoCandidateCollection, err)
	}
	return out, nil
}

func (s mongoCandidates) SetScraped(ctx context.Context, id string, status domain.ScrapeStatus) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"scraped": status.String()}})
	if err != nil {
		return fmt.Errorf("update candidate %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s mongoCandidates) ResetScraped(ctx context.Context) (int, error) {
	pending := domain.StatusPending.String()
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"scraped": bson.M{"$ne": pending}},
		bson.M{"$set": bson.M{"scraped": pending}},
	)
	if err != nil {
		return 0, fmt.Errorf("reset candidates: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (s mongoCandidates) Drop(ctx context.Context) error {
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", mongoCandidateCollection, err)
	}
	return nil
}

type mongoContents struct{ coll *mongo.Collection }

func (s mongoContents) Count(ctx context.Context, f Filter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, contentFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", mongoContentCollection, err)
	}
	return int(n), nil
}

func (s mongoContents) Find(ctx context.Context, f Filter) ([]domain.Content, error) {
	cur, err := s.coll.Find(ctx, contentFilter(f), insertionOrder())
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", mongoContentCollection, err)
	}
	var docs []contentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", mongoContentCollection, err)
	}
	out := make([]domain.Content, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s mongoContents) InsertOne(ctx context.Context, c domain.Content) (domain.Content, error) {
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}
	id := bson.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, toContentDoc(c, id)); err != nil {
		return domain.Content{}, fmt.Errorf("insert %s: %w", mongoContentCollection, err)
	}
	c.ID = id.Hex()
	return c, nil
}

func (s mongoContents) Drop(ctx context.Context) error {
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", mongoContentCollection, err)
	}
	return nil
}
