package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// RouterConfig holds everything NewRouter mounts.
type RouterConfig struct {
	// APIPrefix is the mount point of the JSON API, e.g. "/api". Empty mounts at the root.
	APIPrefix string
	// MediaRoot is served under /media/. Empty disables media serving.
	MediaRoot string

	Handler      *Handler
	Health       *HealthHandler
	Metrics      *MetricsHandler
	Auth         *AuthHandler
	Products     *ProductHandler
	Images       *ProductImageHandler
	UserProducts *UserProductHandler

	// Global runs on every request, in order.
	Global []Middleware
	// Authenticate guards every API route except token issuance.
	Authenticate Middleware
	// RateLimitToken guards token issuance. Optional.
	RateLimitToken Middleware
	// RateLimitAPI runs after Authenticate. Optional.
	RateLimitAPI Middleware
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	for _, mw := range cfg.Global {
		if mw != nil {
			r.Use(mw)
		}
	}

	h := cfg.Handler
	if h == nil {
		h = New()
	}

	// Probes and metrics (no auth required)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	if cfg.MediaRoot != "" {
		r.Get("/media/*", mediaFiles(cfg.MediaRoot, h))
	}

	api := func(r chi.Router) {
		r.With(optional(cfg.RateLimitToken)...).Post("/auth/token", cfg.Auth.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)
			if cfg.RateLimitAPI != nil {
				r.Use(cfg.RateLimitAPI)
			}

			r.Delete("/auth/token", cfg.Auth.RevokeToken)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", cfg.Products.List)
				r.Post("/", cfg.Products.Create)
				r.Get("/{id}", cfg.Products.Get)
				r.Patch("/{id}", cfg.Products.Update)
				r.Delete("/{id}", cfg.Products.Delete)
				r.Post("/{id}/image", cfg.Images.Attach)
			})

			r.Route("/user-products", func(r chi.Router) {
				r.Get("/", cfg.UserProducts.List)
				r.Post("/", cfg.UserProducts.Attach)
				r.Delete("/{id}", cfg.UserProducts.Detach)
			})
		})
	}

	if cfg.APIPrefix == "" {
		r.Group(api)
	} else {
		r.Route(cfg.APIPrefix, api)
	}

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// mediaFiles serves stored images. Directory listings are not exposed.
func mediaFiles(root string, h *Handler) http.HandlerFunc {
	files := http.StripPrefix("/media", http.FileServer(http.Dir(root)))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			h.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}
}

func optional(mw Middleware) []Middleware {
	if mw == nil {
		return nil
	}
	return []Middleware{mw}
}
