package service

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
)

// DashboardService counts the records of every collection.
type DashboardService struct {
	st          store.Store
	collections []string
}

func NewDashboardService(st store.Store, collections []string) *DashboardService {
	return &DashboardService{st: st, collections: collections}
}

// Counts returns one entry per collection, keyed "total" followed by the
// capitalised collection name (users -> totalUsers).
func (s *DashboardService) Counts(ctx context.Context) (map[string]int64, error) {
	var mu sync.Mutex
	counts := make(map[string]int64, len(s.collections))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range s.collections {
		name := name
		g.Go(func() error {
			n, err := repository.NewCollection(s.st, name).Count(ctx)
			if err != nil {
				return errors.Wrapf(err, "count %s", name)
			}
			mu.Lock()
			counts[CountKey(name)] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// CountKey is the dashboard key for collection name.
func CountKey(name string) string {
	if name == "" {
		return "total"
	}
	return "total" + strings.ToUpper(name[:1]) + name[1:]
}
