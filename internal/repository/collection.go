package repository

import (
	"context"

	"github.com/guardiancare/server/internal/store"
)

// Collection names.
const (
	UsersCollection         = "users"
	MealsCollection         = "meals"
	MealRequestsCollection  = "mealRequests"
	UpcomingMealsCollection = "upcomingMeals"
	ReviewsCollection       = "reviews"
	MembershipsCollection   = "memberships"
	TransactionsCollection  = "transactions"
)

// Collections lists every collection the service owns.
var Collections = []string{
	UsersCollection,
	MealsCollection,
	MealRequestsCollection,
	UpcomingMealsCollection,
	ReviewsCollection,
	MembershipsCollection,
	TransactionsCollection,
}

// Collection binds a store to one collection name.
type Collection struct {
	st   store.Store
	name string
}

func NewCollection(st store.Store, name string) *Collection {
	return &Collection{st: st, name: name}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) All(ctx context.Context) ([]store.Record, error) {
	return c.st.Find(ctx, c.name, nil)
}

func (c *Collection) ByID(ctx context.Context, id string) (store.Record, error) {
	return c.st.FindOne(ctx, c.name, store.Filter{store.IDField: id})
}

// OneBy returns the first record whose field equals value.
func (c *Collection) OneBy(ctx context.Context, field string, value any) (store.Record, error) {
	return c.st.FindOne(ctx, c.name, store.Filter{field: value})
}

// AllBy returns every record whose field equals value.
func (c *Collection) AllBy(ctx context.Context, field string, value any) ([]store.Record, error) {
	return c.st.Find(ctx, c.name, store.Filter{field: value})
}

func (c *Collection) Create(ctx context.Context, rec store.Record) (store.Record, error) {
	return c.st.Insert(ctx, c.name, rec)
}

// Patch overwrites the given fields of the record with id and returns the
// updated record. Fields absent from the patch are left untouched.
func (c *Collection) Patch(ctx context.Context, id string, fields store.Record) (store.Record, error) {
	return c.st.Update(ctx, c.name, store.Filter{store.IDField: id}, fields)
}

// SetField sets one field on the first record matching filter.
func (c *Collection) SetField(ctx context.Context, filter store.Filter, field string, value any) (store.Record, error) {
	return c.st.Update(ctx, c.name, filter, store.Record{field: value})
}

func (c *Collection) DeleteByID(ctx context.Context, id string) (int64, error) {
	return c.st.Delete(ctx, c.name, store.Filter{store.IDField: id})
}

func (c *Collection) DeleteWhere(ctx context.Context, filter store.Filter) (int64, error) {
	return c.st.Delete(ctx, c.name, filter)
}

func (c *Collection) Count(ctx context.Context) (int64, error) {
	return c.st.Count(ctx, c.name, nil)
}

// EnsureUnique makes the combination of fields unique in the collection.
func (c *Collection) EnsureUnique(ctx context.Context, fields ...string) error {
	return c.st.EnsureUniqueIndex(ctx, c.name, fields)
}
