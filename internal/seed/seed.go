// Package seed fills a store with generated sample records for development.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
)

var (
	firstNames = []string{"Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Hank", "Ivy", "Jack", "Karen", "Leo", "Mona", "Nick", "Olivia", "Paul"}
	lastNames  = []string{"Smith", "Johnson", "Brown", "Garcia", "Miller", "Davis", "Martinez", "Wilson", "Taylor", "Moore", "Lee", "Clark"}
	dishes     = []string{"Chicken Biryani", "Vegetable Khichuri", "Beef Tehari", "Fish Curry", "Egg Fried Rice", "Lentil Soup", "Paneer Tikka", "Pasta Alfredo", "Chicken Shawarma", "Mixed Salad", "Pancakes", "Oatmeal Bowl"}
	categories = []string{"breakfast", "lunch", "dinner"}
	admins     = []string{"Hostel Admin", "Kitchen Lead", "Warden"}
	badges     = []string{"Bronze", "Silver", "Gold", "Platinum"}
	allTags    = []string{"spicy", "vegetarian", "halal", "gluten-free", "high-protein", "chef-special"}
)

// Options controls how much is generated.
type Options struct {
	Users    int
	Meals    int
	Upcoming int
	// Workers bounds the concurrent inserts.
	Workers int
	// Seed makes generation deterministic.
	Seed int64
}

// Report is the outcome of a Run.
type Report struct {
	Inserted map[string]int
	Elapsed  time.Duration
}

// Seeder inserts generated records through a store.
type Seeder struct {
	st  store.Store
	log *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Seeder {
	return &Seeder{st: st, log: log}
}

// Run generates every record up front, then inserts them with at most
// opts.Workers inserts in flight. The first insert error cancels the rest.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Users < 0 || opts.Meals < 0 || opts.Upcoming < 0 {
		return nil, errors.New("seed: counts must not be negative")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	users := make([]store.Record, opts.Users)
	for i := range users {
		users[i] = User(rng, i)
	}
	meals := make([]store.Record, opts.Meals)
	for i := range meals {
		meals[i] = Meal(rng, i)
	}
	upcoming := make([]store.Record, opts.Upcoming)
	for i := range upcoming {
		upcoming[i] = Meal(rng, opts.Meals+i)
	}

	batches := []struct {
		collection string
		recs       []store.Record
	}{
		{repository.UsersCollection, users},
		{repository.MealsCollection, meals},
		{repository.UpcomingMealsCollection, upcoming},
	}

	start := time.Now()
	report := &Report{Inserted: make(map[string]int, len(batches))}
	for _, b := range batches {
		n, err := s.insertAll(ctx, b.collection, b.recs, opts.Workers)
		report.Inserted[b.collection] = n
		if err != nil {
			return report, err
		}
		s.log.Info("seeded collection", zap.String("collection", b.collection), zap.Int("records", n))
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func (s *Seeder) insertAll(ctx context.Context, collection string, recs []store.Record, workers int) (int, error) {
	coll := repository.NewCollection(s.st, collection)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	inserted := make([]bool, len(recs))
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if _, err := coll.Create(gctx, rec); err != nil {
				return errors.Wrapf(err, "seed %s record %d", collection, i)
			}
			inserted[i] = true
			return nil
		})
	}
	err := g.Wait()

	n := 0
	for _, ok := range inserted {
		if ok {
			n++
		}
	}
	return n, err
}

// User generates the i-th sample user. Emails are unique per i.
func User(rng *rand.Rand, i int) store.Record {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	return store.Record{
		"name":  first + " " + last,
		"email": fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		"role":  "user",
		"badge": badges[rng.Intn(len(badges))],
	}
}

// Meal generates the i-th sample meal.
func Meal(rng *rand.Rand, i int) store.Record {
	dish := dishes[rng.Intn(len(dishes))]
	return store.Record{
		"title":       dish,
		"category":    categories[rng.Intn(len(categories))],
		"price":       math.Round((2+rng.Float64()*13)*100) / 100,
		"rating":      float64(1 + rng.Intn(5)),
		"likes":       float64(rng.Intn(50)),
		"reviewCount": float64(0),
		"ingredients": randomTags(rng),
		"description": fmt.Sprintf("Sample %s #%d", strings.ToLower(dish), i),
		"adminName":   admins[rng.Intn(len(admins))],
		"postTime":    randomDate(rng),
	}
}

func randomTags(rng *rand.Rand) []any {
	n := 1 + rng.Intn(3)
	picked := make([]any, n)
	for i := range picked {
		picked[i] = allTags[rng.Intn(len(allTags))]
	}
	return picked
}

func randomDate(rng *rand.Rand) string {
	return fmt.Sprintf("%04d-%02d-%02d", 2024+rng.Intn(2), 1+rng.Intn(12), 1+rng.Intn(28))
}
