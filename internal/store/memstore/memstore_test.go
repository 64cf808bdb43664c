package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiancare/server/internal/store"
)

func TestInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec, err := s.Insert(ctx, "meals", store.Record{"title": "Soup", store.IDField: "caller-chosen"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())
	assert.NotEqual(t, "caller-chosen", rec.ID())
	assert.Equal(t, "Soup", rec["title"])

	got, err := s.FindOne(ctx, "meals", store.Filter{store.IDField: rec.ID()})
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestFindFiltersAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, "meals", store.Record{"title": title, "kind": "lunch"})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, "meals", store.Record{"title": "d", "kind": "dinner"})
	require.NoError(t, err)

	all, err := s.Find(ctx, "meals", nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0]["title"])

	lunch, err := s.Find(ctx, "meals", store.Filter{"kind": "lunch"})
	require.NoError(t, err)
	assert.Len(t, lunch, 3)

	none, err := s.Find(ctx, "unknown", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateSetsNamedFieldsOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec, err := s.Insert(ctx, "meals", store.Record{"title": "Soup", "price": 4.5})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "meals", store.Filter{store.IDField: rec.ID()}, store.Record{"price": 5.0, store.IDField: "x"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), updated.ID())
	assert.Equal(t, "Soup", updated["title"])
	assert.Equal(t, 5.0, updated["price"])

	_, err = s.Update(ctx, "meals", store.Filter{store.IDField: uuid.NewString()}, store.Record{"price": 1.0})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMalformedIDIsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Insert(ctx, "meals", store.Record{"title": "Soup"})
	require.NoError(t, err)
	bad := store.Filter{store.IDField: "not-a-uuid"}

	_, err = s.Find(ctx, "meals", bad)
	assert.True(t, errors.Is(err, store.ErrInvalidID))
	_, err = s.FindOne(ctx, "meals", bad)
	assert.True(t, errors.Is(err, store.ErrInvalidID))
	_, err = s.Update(ctx, "meals", bad, store.Record{"price": 1.0})
	assert.True(t, errors.Is(err, store.ErrInvalidID))
	_, err = s.Delete(ctx, "meals", bad)
	assert.True(t, errors.Is(err, store.ErrInvalidID))
	_, err = s.Count(ctx, "meals", bad)
	assert.True(t, errors.Is(err, store.ErrInvalidID))
}

func TestDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.Insert(ctx, "reviews", store.Record{"email": "a@x.com"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "reviews", store.Record{"email": "b@x.com"})
	require.NoError(t, err)

	n, err := s.Count(ctx, "reviews", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	deleted, err := s.Delete(ctx, "reviews", store.Filter{store.IDField: a.ID()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = s.FindOne(ctx, "reviews", store.Filter{store.IDField: a.ID()})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	n, err = s.Count(ctx, "reviews", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := New()
	fields := []string{"mealId", "email"}
	require.NoError(t, s.EnsureUniqueIndex(ctx, "reviews", fields))
	require.NoError(t, s.EnsureUniqueIndex(ctx, "reviews", fields))

	_, err := s.Insert(ctx, "reviews", store.Record{"mealId": "m1", "email": "a@x.com"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "reviews", store.Record{"mealId": "m1", "email": "b@x.com"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, "reviews", store.Record{"mealId": "m1", "email": "a@x.com", "rating": 2})
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))

	// An update may not move a record onto an existing key either.
	_, err = s.Update(ctx, "reviews", store.Filter{"email": "b@x.com"}, store.Record{"email": "a@x.com"})
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))
}

func TestUniqueIndexRejectsExistingDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 2; i++ {
		_, err := s.Insert(ctx, "mealRequests", store.Record{"mealId": "m1", "email": "a@x.com"})
		require.NoError(t, err)
	}
	err := s.EnsureUniqueIndex(ctx, "mealRequests", []string{"mealId", "email"})
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))
}

func TestConcurrentInsertsHonourUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureUniqueIndex(ctx, "reviews", []string{"mealId", "email"}))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Insert(ctx, "reviews", store.Record{"mealId": "m1", "email": "a@x.com"})
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx, "reviews", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
