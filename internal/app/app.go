// Package app wires the store, services, handlers and router together.
package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/handler"
	mw "github.com/guardiancare/server/internal/middleware"
	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/router"
	"github.com/guardiancare/server/internal/service"
	"github.com/guardiancare/server/internal/store"
)

// App is the assembled HTTP service.
type App struct {
	Handler http.Handler

	mealRequests *service.SubmissionService
	reviews      *service.SubmissionService
}

// New assembles the service on st. Metrics are registered with reg.
func New(st store.Store, intents service.IntentCreator, log *zap.Logger, reg *prometheus.Registry) *App {
	coll := func(name string) *repository.Collection { return repository.NewCollection(st, name) }
	records := func(name string) *handler.RecordHandler {
		return handler.NewRecordHandler(coll(name), log)
	}

	mealRequests := coll(repository.MealRequestsCollection)
	reviews := coll(repository.ReviewsCollection)
	mealRequestSvc := service.NewMealRequestService(mealRequests, log)
	reviewSvc := service.NewReviewService(reviews, log)

	h := router.Handlers{
		Health:        handler.NewHealthHandler(st, log),
		Users:         records(repository.UsersCollection),
		Meals:         records(repository.MealsCollection),
		MealRequests:  handler.NewRecordHandler(mealRequests, log),
		UpcomingMeals: records(repository.UpcomingMealsCollection),
		Reviews:       handler.NewRecordHandler(reviews, log),
		Memberships:   records(repository.MembershipsCollection),
		Transactions:  records(repository.TransactionsCollection),

		MealRequestSubmissions: handler.NewSubmissionHandler(mealRequestSvc, mealRequests, log),
		ReviewSubmissions:      handler.NewSubmissionHandler(reviewSvc, reviews, log),

		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(st, repository.Collections), log),
		Payment:   handler.NewPaymentHandler(service.NewPaymentService(intents), log),
	}

	metrics := mw.NewMetrics(reg)
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	return &App{
		Handler:      router.New(log, metrics, metricsHandler, h),
		mealRequests: mealRequestSvc,
		reviews:      reviewSvc,
	}
}

// EnsureIndexes creates the unique indexes the submission guards rely on.
func (a *App) EnsureIndexes(ctx context.Context) error {
	if err := a.mealRequests.EnsureIndexes(ctx); err != nil {
		return err
	}
	return a.reviews.EnsureIndexes(ctx)
}
