package handlers

import (
	"net/http"
	"time"

	"budgettracker/config"
	"budgettracker/middleware"
	"budgettracker/models"
	"budgettracker/queue"
	"budgettracker/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the API is wired from.
type Deps struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Store       store.Store
	Auth        *middleware.Auth
	Dispatcher  queue.Dispatcher
	Categorizer Categorizer
	Digest      DigestRunner
	// DeployedAt is reported by the root endpoint.
	DeployedAt time.Time
}

type serviceInfo struct {
	Name           string    `json:"name"`
	Environment    string    `json:"environment"`
	LastDeployedAt time.Time `json:"last_deployed_at"`
}

func NewRouter(d Deps) http.Handler {
	userHandler := NewUserHandler(d.Store.Users(), d.Auth, d.Config.IsProduction())
	projectHandler := NewProjectHandler(d.Store.Projects(), d.Dispatcher)
	expenseHandler := NewExpenseHandler(d.Store, d.Dispatcher, d.Categorizer)
	memberHandler := NewMemberHandler(d.Store)
	reportHandler := NewReportHandler(d.Digest)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(middleware.Tracing)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.Config.AppURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, serviceInfo{
			Name:           "api",
			Environment:    d.Config.Environment,
			LastDeployedAt: d.DeployedAt,
		})
	})
	router.Post("/user/signup", userHandler.Signup)
	router.Post("/user/signin", userHandler.Signin)
	router.Post("/user/logout", userHandler.Logout)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		r.Get("/user/signin_token", userHandler.SigninToken)

		r.Route("/project", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Post("/search", projectHandler.Search)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)
		})

		r.Route("/expense", func(r chi.Router) {
			r.Post("/", expenseHandler.Create)
			r.Post("/search", expenseHandler.Search)
			r.Post("/categorize", expenseHandler.Categorize)
			r.Get("/export", expenseHandler.Export)
			r.Get("/{id}", expenseHandler.Get)
			r.Put("/{id}", expenseHandler.Update)
			r.Delete("/{id}", expenseHandler.Delete)
		})

		r.Route("/project-member", func(r chi.Router) {
			r.Post("/", memberHandler.Add)
			r.Post("/search", memberHandler.Search)
			r.Put("/{id}", memberHandler.Update)
			r.Delete("/{id}", memberHandler.Remove)
		})

		// Admin only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/report/daily-budget", reportHandler.DailyBudget)
		})
	})

	return router
}
