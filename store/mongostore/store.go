// Package mongostore provides a MongoDB-backed store.Store, adapted from
// the teacher's event/eventstore/mongostore: same connect-once/option
// shape, but keyed by (uuid, index) instead of (aggregateName,
// aggregateId, version), and without the event store's transactional
// version-conflict check, since jobflow never rejects a write on
// generation mismatch — replace-continuation is the only thing that
// bumps index, and it always bumps forward.
package mongostore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xperrylinn/jobflow/store"
)

// Store is the MongoDB store.Store implementation.
type Store struct {
	dbname string
	col    string

	client *mongo.Client
	db     *mongo.Database
	coll   *mongo.Collection

	onceConnect sync.Once
	connectErr  error
}

// Option configures a Store.
type Option func(*Store)

// Client sets the underlying mongo.Client to use.
func Client(c *mongo.Client) Option { return func(s *Store) { s.client = c } }

// Database sets the Mongo database name to use.
func Database(name string) Option { return func(s *Store) { s.dbname = name } }

// Collection sets the name of the collection records are stored in.
func Collection(name string) Option { return func(s *Store) { s.col = name } }

type document struct {
	UUID        string         `bson:"uuid"`
	Index       int            `bson:"index"`
	Output      string         `bson:"output"` // JSON-encoded, preserves Reference's own codec
	CompletedAt int64          `bson:"completedAt"`
	Metadata    map[string]any `bson:"metadata"`
}

// New returns a MongoDB Store. The connection is established lazily on
// first use via connectOnce, mirroring the teacher's Store.
func New(client *mongo.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	if strings.TrimSpace(s.dbname) == "" {
		s.dbname = "jobflow"
	}
	if strings.TrimSpace(s.col) == "" {
		s.col = "job_outputs"
	}
	return s
}

func (s *Store) connectOnce(ctx context.Context) error {
	s.onceConnect.Do(func() {
		if s.client == nil {
			s.connectErr = fmt.Errorf("mongostore: no mongo.Client configured")
			return
		}
		s.db = s.client.Database(s.dbname)
		s.coll = s.db.Collection(s.col)
		_, s.connectErr = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "uuid", Value: 1}, {Key: "index", Value: -1}},
		})
	})
	return s.connectErr
}

// GetOutput implements store.Store.
func (s *Store) GetOutput(ctx context.Context, uuid string, which any, _ bool) (any, error) {
	if err := s.connectOnce(ctx); err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}

	filter := bson.M{"uuid": uuid}
	opts := options.FindOne().SetSort(bson.D{{Key: "index", Value: -1}})

	if idx, ok := which.(int); ok {
		filter["index"] = idx
		opts = options.FindOne()
	}

	var doc document
	if err := s.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &store.ErrNotFound{UUID: uuid, Which: which}
		}
		return nil, fmt.Errorf("mongostore: find: %w", err)
	}

	var value any
	if err := json.Unmarshal([]byte(doc.Output), &value); err != nil {
		return nil, fmt.Errorf("mongostore: decode output: %w", err)
	}
	return value, nil
}

// Update implements store.Store: upsert keyed by (uuid, index).
func (s *Store) Update(ctx context.Context, rec store.Record, _ store.DataSelector) error {
	if err := s.connectOnce(ctx); err != nil {
		return fmt.Errorf("mongostore: connect: %w", err)
	}

	encoded, err := json.Marshal(rec.Output)
	if err != nil {
		return fmt.Errorf("mongostore: encode output: %w", err)
	}

	doc := document{
		UUID:        rec.UUID,
		Index:       rec.Index,
		Output:      string(encoded),
		CompletedAt: rec.CompletedAt.UnixNano(),
		Metadata:    rec.Metadata,
	}

	_, err = s.coll.ReplaceOne(ctx,
		bson.M{"uuid": rec.UUID, "index": rec.Index},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongostore: upsert: %w", err)
	}
	return nil
}
