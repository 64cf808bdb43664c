package service

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
)

func TestCountsEmptyStore(t *testing.T) {
	svc := NewDashboardService(newFailingStore(), repository.Collections)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(repository.Collections))
	for _, name := range repository.Collections {
		assert.EqualValues(t, 0, counts[CountKey(name)], name)
	}
}

func TestCountsAfterInserts(t *testing.T) {
	ctx := context.Background()
	st := newFailingStore()
	for i := 0; i < 3; i++ {
		_, err := st.Insert(ctx, repository.MealsCollection, store.Record{"n": i})
		require.NoError(t, err)
	}
	_, err := st.Insert(ctx, repository.UsersCollection, store.Record{"email": "a@x.com"})
	require.NoError(t, err)

	counts, err := NewDashboardService(st, repository.Collections).Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts["totalMeals"])
	assert.EqualValues(t, 1, counts["totalUsers"])
	assert.EqualValues(t, 0, counts["totalReviews"])
}

func TestCountsPropagatesFailure(t *testing.T) {
	st := newFailingStore()
	st.CountFunc = func(_ context.Context, collection string, _ store.Filter) (int64, error) {
		if collection == repository.ReviewsCollection {
			return 0, errors.New("timeout")
		}
		return 0, nil
	}
	_, err := NewDashboardService(st, repository.Collections).Counts(context.Background())
	assert.Error(t, err)
}

func TestCountKey(t *testing.T) {
	assert.Equal(t, "totalUsers", CountKey("users"))
	assert.Equal(t, "totalMealRequests", CountKey("mealRequests"))
	assert.Equal(t, "totalUpcomingMeals", CountKey("upcomingMeals"))
}
