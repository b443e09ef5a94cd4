package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/catalog"
	"github.com/fjod/go_cart/storefront-service/internal/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Catalog        catalog.Catalog
	Registry       *registry.Registry
	Logger         *zap.Logger
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	productHandler := NewProductHandler(cfg.Catalog, cfg.RequestTimeout, cfg.Logger)
	cartHandler := NewCartHandler(cfg.Catalog, cfg.RequestTimeout, cfg.Logger)
	authHandler := NewAuthHandler()

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.List)
		r.Get("/products/{id}", productHandler.Get)
		r.Get("/categories", productHandler.Categories)
		r.Get("/categories/{id}", productHandler.Category)

		r.Group(func(r chi.Router) {
			r.Use(ClientMiddleware(cfg.Registry))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{id}", cartHandler.RemoveItem)
				r.Put("/open", cartHandler.SetOpen)
				r.Get("/toast", cartHandler.GetToast)
				r.Delete("/toast", cartHandler.HideToast)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})
	})

	return r
}
