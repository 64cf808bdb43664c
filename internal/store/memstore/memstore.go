// Package memstore is an in-process store.Store used for local development
// and tests. Records keep insertion order and unique indexes are enforced on
// insert and update, the same way the database backends do.
package memstore

import (
	"context"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/guardiancare/server/internal/store"
)

type collection struct {
	records []store.Record
	uniques [][]string
}

// Store keeps every collection in memory behind a single lock.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{collections: map[string]*collection{}}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Find(_ context.Context, name string, filter store.Filter) ([]store.Record, error) {
	if err := checkID(filter); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Record, 0)
	c, ok := s.collections[name]
	if !ok {
		return out, nil
	}
	for _, rec := range c.records {
		if matches(rec, filter) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *Store) FindOne(_ context.Context, name string, filter store.Filter) (store.Record, error) {
	if err := checkID(filter); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, rec := range c.records {
		if matches(rec, filter) {
			return rec.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Insert(_ context.Context, name string, rec store.Record) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	stored := rec.WithoutID()
	stored[store.IDField] = uuid.NewString()
	if err := c.checkUnique(stored, -1); err != nil {
		return nil, err
	}
	c.records = append(c.records, stored)
	return stored.Clone(), nil
}

func (s *Store) Update(_ context.Context, name string, filter store.Filter, fields store.Record) (store.Record, error) {
	if err := checkID(filter); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	for i, rec := range c.records {
		if !matches(rec, filter) {
			continue
		}
		updated := rec.Clone()
		for k, v := range fields.WithoutID() {
			updated[k] = v
		}
		if err := c.checkUnique(updated, i); err != nil {
			return nil, err
		}
		c.records[i] = updated
		return updated.Clone(), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, name string, filter store.Filter) (int64, error) {
	if err := checkID(filter); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	kept := c.records[:0]
	var deleted int64
	for _, rec := range c.records {
		if matches(rec, filter) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	c.records = kept
	return deleted, nil
}

func (s *Store) Count(_ context.Context, name string, filter store.Filter) (int64, error) {
	if err := checkID(filter); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, rec := range c.records {
		if matches(rec, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) EnsureUniqueIndex(_ context.Context, name string, fields []string) error {
	if len(fields) == 0 {
		return errors.New("memstore: unique index needs at least one field")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	for _, idx := range c.uniques {
		if reflect.DeepEqual(idx, fields) {
			return nil
		}
	}
	idx := append([]string(nil), fields...)
	seen := make([]store.Record, 0, len(c.records))
	for _, rec := range c.records {
		for _, prev := range seen {
			if sameKey(rec, prev, idx) {
				return errors.Wrapf(store.ErrDuplicateKey, "memstore: existing records violate unique index %v", idx)
			}
		}
		seen = append(seen, rec)
	}
	c.uniques = append(c.uniques, idx)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

// checkUnique reports whether rec collides with another record on any unique
// index. skip is the position of rec itself when it is already stored.
func (c *collection) checkUnique(rec store.Record, skip int) error {
	for _, idx := range c.uniques {
		for i, other := range c.records {
			if i == skip {
				continue
			}
			if sameKey(rec, other, idx) {
				return errors.Wrapf(store.ErrDuplicateKey, "memstore: unique index %v", idx)
			}
		}
	}
	return nil
}

// sameKey compares two records on fields. Missing fields compare equal to
// each other, as a database treats them as null.
func sameKey(a, b store.Record, fields []string) bool {
	for _, f := range fields {
		if !reflect.DeepEqual(a[f], b[f]) {
			return false
		}
	}
	return true
}

// checkID rejects an id filter that could never have been assigned.
func checkID(filter store.Filter) error {
	id, ok := filter[store.IDField].(string)
	if !ok {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrInvalidID
	}
	return nil
}

func matches(rec store.Record, filter store.Filter) bool {
	for k, want := range filter {
		got, ok := rec[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
