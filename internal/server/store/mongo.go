package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/hemma/internal/models"
)

const (
	usersCollection      = "users"
	entriesCollection    = "sync_entries"
	categoriesCollection = "sync_categories"
)

// entryDoc stores the value in its wire shape: a bool or a count.
type entryDoc struct {
	UserID    string      `bson:"userId"`
	DayIndex  int         `bson:"dayIndex"`
	HabitID   string      `bson:"habitId"`
	Value     interface{} `bson:"value"`
	UpdatedAt string      `bson:"updatedAt"`
}

type categoryDoc struct {
	UserID              string `bson:"userId"`
	models.SyncCategory `bson:",inline"`
}

type MongoStore struct {
	client     *mongo.Client
	users      *mongo.Collection
	entries    *mongo.Collection
	categories *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo store needs MONGO_URI")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:     client,
		users:      db.Collection(usersCollection),
		entries:    db.Collection(entriesCollection),
		categories: db.Collection(categoriesCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.entries, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dayIndex", Value: 1}, {Key: "habitId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.categories, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "categoryId", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) CreateUser(ctx context.Context, u models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.D) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *MongoStore) LoadSnapshot(ctx context.Context, userID string) (models.SyncPayload, error) {
	var p models.SyncPayload
	filter := bson.D{{Key: "userId", Value: userID}}

	cur, err := s.entries.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "dayIndex", Value: 1}, {Key: "habitId", Value: 1}}))
	if err != nil {
		return p, fmt.Errorf("failed to query entries: %w", err)
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return p, fmt.Errorf("failed to decode entries: %w", err)
	}
	for _, d := range docs {
		p.Entries = append(p.Entries, models.SyncEntry{
			DayIndex:  d.DayIndex,
			HabitID:   d.HabitID,
			Value:     decodeValue(d.Value),
			UpdatedAt: d.UpdatedAt,
		})
	}

	ccur, err := s.categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}}))
	if err != nil {
		return p, fmt.Errorf("failed to query categories: %w", err)
	}
	var cdocs []categoryDoc
	if err := ccur.All(ctx, &cdocs); err != nil {
		return p, fmt.Errorf("failed to decode categories: %w", err)
	}
	for _, d := range cdocs {
		p.Categories = append(p.Categories, d.SyncCategory)
	}
	return p, nil
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, userID string, payload models.SyncPayload) error {
	if len(payload.Entries) > 0 {
		writes := make([]mongo.WriteModel, 0, len(payload.Entries))
		for _, e := range payload.Entries {
			doc := entryDoc{UserID: userID, DayIndex: e.DayIndex, HabitID: e.HabitID, Value: encodeValue(e.Value), UpdatedAt: e.UpdatedAt}
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "userId", Value: userID}, {Key: "dayIndex", Value: e.DayIndex}, {Key: "habitId", Value: e.HabitID}}).
				SetReplacement(doc).
				SetUpsert(true))
		}
		if _, err := s.entries.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("failed to upsert entries: %w", err)
		}
	}

	if len(payload.Categories) > 0 {
		writes := make([]mongo.WriteModel, 0, len(payload.Categories))
		for _, c := range payload.Categories {
			if c.Items == nil {
				c.Items = []models.HabitItem{}
			}
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "userId", Value: userID}, {Key: "categoryId", Value: c.CategoryID}}).
				SetReplacement(categoryDoc{UserID: userID, SyncCategory: c}).
				SetUpsert(true))
		}
		if _, err := s.categories.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("failed to upsert categories: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) DeleteSnapshot(ctx context.Context, userID string) error {
	filter := bson.D{{Key: "userId", Value: userID}}
	if _, err := s.entries.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := s.categories.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete categories: %w", err)
	}
	return nil
}

func encodeValue(v models.HabitValue) interface{} {
	if v.Numeric {
		return int64(v.Count)
	}
	return v.Done
}

func decodeValue(raw interface{}) models.HabitValue {
	switch v := raw.(type) {
	case bool:
		return models.Bool(v)
	case int32:
		return models.Count(int(v))
	case int64:
		return models.Count(int(v))
	case float64:
		return models.Count(int(v))
	default:
		return models.Bool(false)
	}
}
