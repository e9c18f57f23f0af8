package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kmallard/riverseq/pkg/errors"
)

// MongoStore implements Store on a MongoDB collection. Records are keyed by
// name with a unique index, so Save is an upsert.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects to the MongoDB deployment at uri and verifies the
// connection with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping %s", uri)
	}

	col := client.Database(database).Collection(collection)
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(ctx, indexModel); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create name index")
	}

	return &MongoStore{client: client, col: col}, nil
}

// Save upserts the record under its name.
func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	if rec.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record name is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	filter := bson.D{{Key: "name", Value: rec.Name}}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.col.ReplaceOne(ctx, filter, rec, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save record %q", rec.Name)
	}
	return nil
}

// Load retrieves the record with the given name.
func (s *MongoStore) Load(ctx context.Context, name string) (Record, error) {
	var rec Record
	err := s.col.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, errors.New(errors.ErrCodeNetworkNotFound, "no saved record named %q", name)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeStore, err, "load record %q", name)
	}
	return rec, nil
}

// List returns all saved record names in ascending order.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list records")
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode record name")
		}
		names = append(names, doc.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list records")
	}
	return names, nil
}

// Delete removes the record with the given name, if present.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.col.DeleteOne(ctx, bson.D{{Key: "name", Value: name}}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete record %q", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
