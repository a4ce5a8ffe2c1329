package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/platform/session"
)

const apiBasePath = "/api/v1"

// RouteRegistrar attaches a group of routes to a router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	middlewares    []func(http.Handler) http.Handler
	orderRoutes    RouteRegistrar
	customerRoutes RouteRegistrar
	productRoutes  RouteRegistrar
	shopRoutes     RouteRegistrar
	reminderRoutes RouteRegistrar
	templateRoutes RouteRegistrar
	reportRoutes   RouteRegistrar
	activityRoutes RouteRegistrar
	healthHandlers *HealthHandlers
	requestTimeout time.Duration
}

// Option customises router construction.
type Option func(*routerConfig)

// WithMiddlewares appends extra middleware ahead of route registration.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithOrderRoutes mounts order endpoints under /orders.
func WithOrderRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.orderRoutes = registrar
	}
}

// WithCustomerRoutes mounts customer endpoints under /customers.
func WithCustomerRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.customerRoutes = registrar
	}
}

// WithProductRoutes mounts catalog endpoints under /products.
func WithProductRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.productRoutes = registrar
	}
}

// WithShopRoutes mounts shop settings endpoints under /shops.
func WithShopRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.shopRoutes = registrar
	}
}

// WithReminderRoutes mounts reminder endpoints under /reminders.
func WithReminderRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.reminderRoutes = registrar
	}
}

// WithTemplateRoutes mounts message template endpoints under /templates.
func WithTemplateRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.templateRoutes = registrar
	}
}

// WithReportRoutes mounts reporting endpoints under /reports.
func WithReportRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.reportRoutes = registrar
	}
}

// WithActivityRoutes mounts activity log endpoints under /activity.
func WithActivityRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.activityRoutes = registrar
	}
}

// WithHealthHandlers wires liveness and readiness probes at the router root.
func WithHealthHandlers(handlers *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.healthHandlers = handlers
	}
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(cfg *routerConfig) {
		if timeout > 0 {
			cfg.requestTimeout = timeout
		}
	}
}

// NewRouter assembles the API router. Every business route lives under
// /api/v1 and reads its shop scope from the session headers.
func NewRouter(opts ...Option) chi.Router {
	cfg := &routerConfig{requestTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(cfg.requestTimeout))
	router.Use(session.Middleware())
	for _, mw := range cfg.middlewares {
		router.Use(mw)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(r.Context(), w, httpx.NewError("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed))
	})

	if cfg.healthHandlers != nil {
		router.Get("/healthz", cfg.healthHandlers.Healthz)
		router.Get("/readyz", cfg.healthHandlers.Readyz)
	}

	router.Route(apiBasePath, func(api chi.Router) {
		mount(api, "/orders", cfg.orderRoutes)
		mount(api, "/customers", cfg.customerRoutes)
		mount(api, "/products", cfg.productRoutes)
		mount(api, "/shops", cfg.shopRoutes)
		mount(api, "/reminders", cfg.reminderRoutes)
		mount(api, "/templates", cfg.templateRoutes)
		mount(api, "/reports", cfg.reportRoutes)
		mount(api, "/activity", cfg.activityRoutes)
	})

	return router
}

func mount(api chi.Router, path string, registrar RouteRegistrar) {
	if registrar == nil {
		api.Route(path, registerNotImplemented)
		return
	}
	api.Route(path, func(r chi.Router) {
		registrar(r)
	})
}

func registerNotImplemented(r chi.Router) {
	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", "endpoint not implemented", http.StatusNotImplemented))
	})
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", "endpoint not implemented", http.StatusNotImplemented))
	})
}
