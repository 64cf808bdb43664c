// Package oxistore implements store.Store on an OxiDB server.
//
// OxiDB only offers single-field unique indexes, so a compound unique index
// is kept as a derived field holding the encoded combination of the indexed
// values. Derived fields are written on insert and update and never returned
// to callers.
package oxistore

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/oxidb"
	"github.com/guardiancare/server/internal/store"
)

const (
	opTimeout    = 5 * time.Second
	uniquePrefix = "_uniq_"
)

// Store is a store.Store backed by a Pool.
type Store struct {
	pool *Pool
	log  *zap.Logger

	mu      sync.RWMutex
	uniques map[string][][]string
}

var _ store.Store = (*Store)(nil)

// Open connects a pool of size connections to addr.
func Open(ctx context.Context, addr string, size int, log *zap.Logger) (*Store, error) {
	pool, err := NewPool(ctx, addr, size, log)
	if err != nil {
		return nil, err
	}
	log.Info("connected to OxiDB", zap.String("addr", addr), zap.Int("pool_size", size))
	return New(pool, log), nil
}

// New wraps an existing pool.
func New(pool *Pool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log, uniques: map[string][][]string{}}
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := s.pool.Get().Ping(ctx)
	return err
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	q, err := toQuery(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs, err := s.pool.Get().Find(ctx, collection, q)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", collection)
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

	doc, err := s.pool.Get().FindOne(ctx, collection, q)
	if err != nil {
		return nil, errors.Wrapf(err, "find one in %s", collection)
	}
	if doc == nil {
		return nil, store.ErrNotFound
	}
	return fromDoc(doc), nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := rec.WithoutID()
	stored := doc.Clone()
	for field, key := range s.uniqueKeys(collection, doc) {
		doc[field] = key
	}
	id, err := s.pool.Get().Insert(ctx, collection, doc)
	if err != nil {
		return nil, wrapWriteErr(err, "insert into "+collection)
	}
	stored[store.IDField] = oxidb.FormatID(id)
	return stored, nil
}

func (s *Store) Update(ctx context.Context, collection string, filter store.Filter, fields store.Record) (store.Record, error) {
	current, err := s.FindOne(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	set := fields.WithoutID()
	if len(set) == 0 {
		return current, nil
	}

	merged := current.Clone()
	for k, v := range set {
		merged[k] = v
	}
	update := set.Clone()
	for field, key := range s.uniqueKeys(collection, merged) {
		update[field] = key
	}

	byID, err := toQuery(store.Filter{store.IDField: current.ID()})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.pool.Get().UpdateOne(ctx, collection, byID, map[string]any{"$set": map[string]any(update)}); err != nil {
		return nil, wrapWriteErr(err, "update "+collection)
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.pool.Get().Delete(ctx, collection, q)
	if err != nil {
		return 0, errors.Wrapf(err, "delete from %s", collection)
	}
	return int64(n), nil
}

func (s *Store) Count(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.pool.Get().Count(ctx, collection, q)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", collection)
	}
	return int64(n), nil
}

func (s *Store) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {
	if len(fields) == 0 {
		return errors.New("oxistore: unique index needs at least one field")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	field := uniqueField(fields)
	if err := s.pool.Get().CreateUniqueIndex(ctx, collection, field); err != nil {
		return errors.Wrapf(err, "create unique index on %s", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.uniques[collection] {
		if uniqueField(existing) == field {
			return nil
		}
	}
	s.uniques[collection] = append(s.uniques[collection], append([]string(nil), fields...))
	s.log.Info("unique index ready", zap.String("collection", collection), zap.String("field", field))
	return nil
}

// uniqueKeys computes the derived field values of every unique index
// registered on collection.
func (s *Store) uniqueKeys(collection string, doc store.Record) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]string, len(s.uniques[collection]))
	for _, fields := range s.uniques[collection] {
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = doc[f]
		}
		encoded, _ := json.Marshal(values)
		keys[uniqueField(fields)] = string(encoded)
	}
	return keys
}

func uniqueField(fields []string) string {
	return uniquePrefix + strings.Join(fields, "_")
}

// toQuery converts a store filter to an OxiDB query. OxiDB ids are
// auto-increment numbers.
func toQuery(filter store.Filter) (map[string]any, error) {
	q := make(map[string]any, len(filter))
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
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(store.ErrInvalidID, "%q", s)
		}
		q[k] = n
	}
	return q, nil
}

func fromDoc(doc map[string]any) store.Record {
	rec := make(store.Record, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, uniquePrefix) {
			continue
		}
		rec[k] = v
	}
	if id, ok := doc[store.IDField]; ok {
		rec[store.IDField] = oxidb.FormatID(id)
	}
	return rec
}

func wrapWriteErr(err error, msg string) error {
	if oxidb.IsDuplicateKey(err) {
		return errors.Mark(errors.Wrap(err, msg), store.ErrDuplicateKey)
	}
	return errors.Wrap(err, msg)
}
