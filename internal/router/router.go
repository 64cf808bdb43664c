package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/handler"
	mw "github.com/guardiancare/server/internal/middleware"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Health        *handler.HealthHandler
	Users         *handler.RecordHandler
	Meals         *handler.RecordHandler
	MealRequests  *handler.RecordHandler
	UpcomingMeals *handler.RecordHandler
	Reviews       *handler.RecordHandler
	Memberships   *handler.RecordHandler
	Transactions  *handler.RecordHandler

	MealRequestSubmissions *handler.SubmissionHandler
	ReviewSubmissions      *handler.SubmissionHandler

	Dashboard *handler.DashboardHandler
	Payment   *handler.PaymentHandler
}

func New(log *zap.Logger, metrics *mw.Metrics, metricsHandler http.Handler, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestIDs)
	r.Use(mw.Logger(log))
	r.Use(metrics.Handler)
	r.Use(mw.Recovery(log))
	r.Use(cors.AllowAll().Handler)

	r.Get("/", h.Health.Root)
	r.Get("/healthz", h.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Users
	r.Get("/users", h.Users.List)
	r.Post("/users", h.Users.Create)
	r.Get("/user/{email}", h.Users.GetBy("email", "email"))
	r.Patch("/users/{id}", h.Users.SetField("role", "_id", "id"))
	r.Patch("/users/badge/{email}", h.Users.SetField("badge", "email", "email"))

	// Meals
	r.Get("/meals", h.Meals.List)
	r.Post("/meals", h.Meals.Create)
	r.Get("/meals/{id}", h.Meals.Get)
	r.Put("/meals/{id}", h.Meals.Update)
	r.Delete("/meals/{id}", h.Meals.Delete)

	// Meal requests
	r.Get("/mealRequests", h.MealRequests.List)
	r.Post("/mealRequests", h.MealRequestSubmissions.Create)
	r.Get("/mealRequests/{email}", h.MealRequests.ListBy("email", "email"))
	r.Put("/mealRequests/{id}", h.MealRequests.Update)
	r.Delete("/mealRequests/{id}/{email}", h.MealRequestSubmissions.DeleteOwn)

	// Upcoming meals
	r.Get("/upcomingMeals", h.UpcomingMeals.List)
	r.Post("/upcomingMeals", h.UpcomingMeals.Create)
	r.Get("/upcomingMeals/{id}", h.UpcomingMeals.Get)
	r.Put("/upcomingMeals/{id}", h.UpcomingMeals.Update)
	r.Delete("/upcomingMeals/{id}", h.UpcomingMeals.Delete)

	// Reviews
	r.Get("/reviews", h.Reviews.List)
	r.Post("/reviews", h.ReviewSubmissions.Create)
	r.Get("/reviews/{email}", h.Reviews.ListBy("email", "email"))
	r.Get("/reviews/meal/{mealId}", h.Reviews.ListBy("mealId", "mealId"))
	r.Put("/reviews/{id}", h.Reviews.Update)
	r.Delete("/reviews/{id}", h.Reviews.Delete)

	// Memberships
	r.Get("/memberships", h.Memberships.List)
	r.Post("/memberships", h.Memberships.Create)
	r.Get("/membership/{id}", h.Memberships.Get)

	// Transactions
	r.Get("/transactions", h.Transactions.List)
	r.Post("/transactions", h.Transactions.Create)
	r.Get("/transactions/{email}", h.Transactions.ListBy("email", "email"))

	r.Get("/dashboard", h.Dashboard.Dashboard)
	r.Post("/create-payment-intent", h.Payment.CreateIntent)

	return r
}
