package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/austral-pos/austral-pos/internal/auth"
	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/masterdata/branches"
	"github.com/austral-pos/austral-pos/internal/masterdata/categories"
	"github.com/austral-pos/austral-pos/internal/masterdata/clients"
	"github.com/austral-pos/austral-pos/internal/masterdata/products"
	"github.com/austral-pos/austral-pos/internal/observability"
	"github.com/austral-pos/austral-pos/internal/sales"
	"github.com/austral-pos/austral-pos/internal/servicedesk"
	"github.com/austral-pos/austral-pos/internal/users"
	"github.com/austral-pos/austral-pos/jobs"
)

// RouterConfig aggregates everything the HTTP router mounts.
type RouterConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthService *auth.Service
	Auth        *auth.Handler
	Branches    *branches.Handler
	Categories  *categories.Handler
	Clients     *clients.Handler
	Products    *products.Handler
	Users       *users.Handler
	ServiceDesk *servicedesk.Handler
	Inventory   *inventory.Handler
	Sales       *sales.Handler
	Jobs        *jobs.Handler
}

// NewRouter assembles the chi router with the middleware stack, the public
// auth endpoint and the authenticated API under /api/v1.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: cfg.Logger, Config: cfg.Config, Metrics: cfg.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			cfg.Auth.MountRoutes(ar)
			ar.Group(func(protected chi.Router) {
				protected.Use(cfg.AuthService.Middleware)
				protected.Get("/me", cfg.Auth.Me)
			})
		})

		api.Group(func(protected chi.Router) {
			protected.Use(cfg.AuthService.Middleware)
			protected.Route("/branches", cfg.Branches.MountRoutes)
			protected.Route("/categories", cfg.Categories.MountRoutes)
			protected.Route("/clients", cfg.Clients.MountRoutes)
			protected.Route("/products", cfg.Products.MountRoutes)
			protected.Route("/users", cfg.Users.MountRoutes)
			protected.Route("/tickets", cfg.ServiceDesk.MountRoutes)
			protected.Route("/inventory", cfg.Inventory.MountRoutes)
			protected.Route("/sales", cfg.Sales.MountRoutes)
			if cfg.Jobs != nil {
				protected.Route("/jobs", cfg.Jobs.MountRoutes)
			}
		})
	})

	return r
}
