package service

import (
	"context"

	"github.com/guardiancare/server/internal/store"
	"github.com/guardiancare/server/internal/store/memstore"
)

// failingStore wraps a memstore and lets a test override single operations.
type failingStore struct {
	*memstore.Store
	InsertFunc func(ctx context.Context, collection string, rec store.Record) (store.Record, error)
	CountFunc  func(ctx context.Context, collection string, filter store.Filter) (int64, error)
}

func newFailingStore() *failingStore {
	return &failingStore{Store: memstore.New()}
}

func (f *failingStore) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, collection, rec)
	}
	return f.Store.Insert(ctx, collection, rec)
}

func (f *failingStore) Count(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	if f.CountFunc != nil {
		return f.CountFunc(ctx, collection, filter)
	}
	return f.Store.Count(ctx, collection, filter)
}

// fakeIntents records the last call and returns Secret or Err.
type fakeIntents struct {
	Secret   string
	Err      error
	Amount   int64
	Currency string
}

func (f *fakeIntents) CreateIntent(_ context.Context, amount int64, currency string) (string, error) {
	f.Amount = amount
	f.Currency = currency
	return f.Secret, f.Err
}
