// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/store"
)

const (
	connectTimeout = 10 * time.Second
	opTimeout      = 5 * time.Second
)

// Store is a store.Store backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Connect opens a client with the stable v1 server API and pings the
// deployment before returning.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, errors.Wrap(err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping MongoDB")
	}
	log.Info("connected to MongoDB", zap.String("database", dbName))

	return &Store{client: client, db: client.Database(dbName), log: log}, nil
}

func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	q, err := toQuery(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", collection)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", collection)
	}
	out := make([]store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter store.Filter) (store.Record, error) {
	q, err := toQuery(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc bson.M
	err = s.db.Collection(collection).FindOne(ctx, q).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find one in %s", collection)
	}
	return fromDoc(doc), nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := rec.WithoutID()
	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, wrapWriteErr(err, "insert into "+collection)
	}
	stored := doc.Clone()
	stored[store.IDField] = idString(res.InsertedID)
	return stored, nil
}

func (s *Store) Update(ctx context.Context, collection string, filter store.Filter, fields store.Record) (store.Record, error) {
	set := fields.WithoutID()
	if len(set) == 0 {
		// $set refuses an empty document.
		return s.FindOne(ctx, collection, filter)
	}
	q, err := toQuery(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err = s.db.Collection(collection).
		FindOneAndUpdate(ctx, q, bson.M{"$set": bson.M(set)}, opts).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapWriteErr(err, "update "+collection)
	}
	return fromDoc(doc), nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteMany(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "delete from %s", collection)
	}
	return res.DeletedCount, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", collection)
	}
	return n, nil
}

func (s *Store) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {
	if len(fields) == 0 {
		return errors.New("mongostore: unique index needs at least one field")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	model := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true).SetName(indexName(fields)),
	}
	name, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model)
	if err != nil {
		return wrapWriteErr(err, "create unique index on "+collection)
	}
	s.log.Info("unique index ready", zap.String("collection", collection), zap.String("index", name))
	return nil
}

// toQuery converts a store filter to a MongoDB query, parsing the string
// identifier into an ObjectID.
func toQuery(filter store.Filter) (bson.M, error) {
	q := bson.M{}
	for k, v := range filter {
		if k != store.IDField {
			q[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok {
			q[k] = v
			continue
		}
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, errors.Wrapf(store.ErrInvalidID, "%q", s)
		}
		q[k] = oid
	}
	return q, nil
}

// fromDoc converts a decoded document into a store.Record with a string
// identifier and plain Go maps and slices for nested values.
func fromDoc(doc bson.M) store.Record {
	rec := make(store.Record, len(doc))
	for k, v := range doc {
		rec[k] = normalize(v)
	}
	if id, ok := doc[store.IDField]; ok {
		rec[store.IDField] = idString(id)
	}
	return rec
}

func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = normalize(inner)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalize(inner)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

func idString(id any) string {
	switch t := id.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	default:
		return ""
	}
}

func indexName(fields []string) string {
	return strings.Join(fields, "_") + "_unique"
}

func wrapWriteErr(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return errors.Mark(errors.Wrap(err, msg), store.ErrDuplicateKey)
	}
	return errors.Wrap(err, msg)
}
