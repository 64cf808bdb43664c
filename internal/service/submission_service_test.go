package service

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
	"github.com/guardiancare/server/internal/store/memstore"
)

func newReviewService(t *testing.T, st store.Store) (*SubmissionService, *repository.Collection) {
	t.Helper()
	reviews := repository.NewCollection(st, repository.ReviewsCollection)
	svc := NewReviewService(reviews, zap.NewNop())
	require.NoError(t, svc.EnsureIndexes(context.Background()))
	return svc, reviews
}

func TestSubmitAcceptsFirstSubmission(t *testing.T) {
	ctx := context.Background()
	svc, reviews := newReviewService(t, memstore.New())

	stored, err := svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com", "rating": 5.0})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID())
	assert.Equal(t, "meal-1", stored["mealId"])
	assert.Equal(t, "a@x.com", stored["email"])
	assert.Equal(t, 5.0, stored["rating"])

	got, err := reviews.ByID(ctx, stored.ID())
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, reviews := newReviewService(t, memstore.New())

	_, err := svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com", "text": "again"})
	var dup *DuplicateSubmissionError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "You have already reviewed this meal.", dup.Message)

	n, err := reviews.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Different subject or submitter is a different key.
	_, err = svc.Submit(ctx, store.Record{"mealId": "meal-2", "email": "a@x.com"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "b@x.com"})
	require.NoError(t, err)
}

func TestMealRequestMessage(t *testing.T) {
	ctx := context.Background()
	requests := repository.NewCollection(memstore.New(), repository.MealRequestsCollection)
	svc := NewMealRequestService(requests, zap.NewNop())
	require.NoError(t, svc.EnsureIndexes(ctx))

	_, err := svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com"})
	var dup *DuplicateSubmissionError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "You have already requested this meal.", dup.Message)
}

func TestSubmitRequiresNaturalKey(t *testing.T) {
	svc, _ := newReviewService(t, memstore.New())
	for _, rec := range []store.Record{
		{"email": "a@x.com"},
		{"mealId": "meal-1"},
		{"mealId": "", "email": "a@x.com"},
		{"mealId": 12.0, "email": "a@x.com"},
	} {
		_, err := svc.Submit(context.Background(), rec)
		assert.True(t, errors.Is(err, ErrInvalidSubmission), "%v", rec)
	}
}

func TestSubmitReportsStoreFailure(t *testing.T) {
	st := newFailingStore()
	boom := errors.New("connection reset")
	st.InsertFunc = func(context.Context, string, store.Record) (store.Record, error) {
		return nil, boom
	}
	svc, _ := newReviewService(t, st)

	_, err := svc.Submit(context.Background(), store.Record{"mealId": "meal-1", "email": "a@x.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	var dup *DuplicateSubmissionError
	assert.False(t, errors.As(err, &dup))
}

func TestConcurrentDuplicatesStoreOnce(t *testing.T) {
	ctx := context.Background()
	svc, reviews := newReviewService(t, memstore.New())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, store.Record{"mealId": "meal-1", "email": "a@x.com"})
			mu.Lock()
			defer mu.Unlock()
			var dup *DuplicateSubmissionError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &dup):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 19, rejected)
	n, err := reviews.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
