// internal/app/store/kv/mongo.go
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultMongoCollection holds one document per key.
const DefaultMongoCollection = "kv"

const codeConversionFailure = 241

// Mongo is a Backend on one MongoDB collection. Documents look like
//
//	{ _id: <key>, value: <string>, version: <int64>, updated_at: <date> }
//
// Counters written by Incr keep their number in "n" instead of "value" so
// they can be incremented server-side.
type Mongo struct {
	client *mongo.Client
	c      *mongo.Collection
	owned  bool
}

type mongoEntry struct {
	ID        string    `bson:"_id"`
	Value     *string   `bson:"value,omitempty"`
	N         *int64    `bson:"n,omitempty"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d mongoEntry) entry() Entry {
	e := Entry{Version: d.Version}
	switch {
	case d.N != nil:
		e.Value = strconv.FormatInt(*d.N, 10)
	case d.Value != nil:
		e.Value = *d.Value
	}
	return e
}

// DialMongo connects to uri and uses database.collection for storage.
// The returned backend owns the client and disconnects it on Close.
func DialMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	m := NewMongo(client.Database(database), collection)
	m.owned = true
	return m, nil
}

// NewMongo uses an existing database handle. Close leaves the client open.
func NewMongo(db *mongo.Database, collection string) *Mongo {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &Mongo{client: db.Client(), c: db.Collection(collection)}
}

func (m *Mongo) Name() string { return "mongo" }

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	if !m.owned {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// EnsureSchema creates the updated_at index used by backups and audits.
func (m *Mongo) EnsureSchema(ctx context.Context) error {
	_, err := m.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("idx_kv_updated_at"),
	})
	return err
}

func (m *Mongo) Get(ctx context.Context, key string) (Entry, error) {
	var doc mongoEntry
	err := m.c.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return doc.entry(), nil
}

func (m *Mongo) Set(ctx context.Context, key, value string) error {
	update := bson.M{
		"$set":   bson.M{"value": value, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"n": ""},
		"$inc":   bson.M{"version": int64(1)},
	}
	_, err := m.c.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) SetIfVersion(ctx context.Context, key, value string, version int64) error {
	now := time.Now().UTC()
	if version == 0 {
		_, err := m.c.InsertOne(ctx, mongoEntry{ID: key, Value: &value, Version: 1, UpdatedAt: now})
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}

	filter := bson.M{"_id": key, "version": version}
	update := bson.M{
		"$set":   bson.M{"value": value, "updated_at": now},
		"$unset": bson.M{"n": ""},
		"$inc":   bson.M{"version": int64(1)},
	}
	res, err := m.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Incr uses an aggregation-pipeline update so the read and the write
// happen in one server-side operation. A plain string value is converted
// to a counter the first time it is incremented.
func (m *Mongo) Incr(ctx context.Context, key string) (int64, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{
		"$n",
		bson.D{{Key: "$toLong", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$value", "0"}}}}},
	}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "n", Value: bson.D{{Key: "$add", Value: bson.A{current, int64(1)}}}},
			{Key: "version", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$version", int64(0)}}}, int64(1),
			}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
		{{Key: "$unset", Value: "value"}},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc mongoEntry
	err := m.c.FindOneAndUpdate(ctx, bson.M{"_id": key}, pipeline, opts).Decode(&doc)
	if err != nil {
		var se mongo.ServerError
		if errors.As(err, &se) && se.HasErrorCode(codeConversionFailure) {
			return 0, ErrNotInteger
		}
		return 0, err
	}
	if doc.N == nil {
		return 0, ErrNotInteger
	}
	return *doc.N, nil
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.c.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *Mongo) Keys(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := m.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.ID)
	}
	return keys, cur.Err()
}

// DropMongoDatabase drops the database that backs m. Used by tests.
func DropMongoDatabase(ctx context.Context, m *Mongo) error {
	return m.c.Database().Drop(ctx)
}
