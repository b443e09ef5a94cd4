package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/catalog"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(c catalog.Catalog, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
		logger:  logger,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type CategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

// List serves the catalog, optionally narrowed by ?category= and ?q=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		products []domain.Product
		err      error
	)
	if categoryID := r.URL.Query().Get("category"); categoryID != "" {
		products, err = h.catalog.ProductsByCategory(ctx, categoryID)
	} else {
		products, err = h.catalog.Products(ctx)
	}
	if err != nil {
		h.internalError(w, "failed to list products", err)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		products = catalog.Search(products, q)
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.ProductByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.internalError(w, "failed to get product", err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		h.internalError(w, "failed to list categories", err)
		return
	}

	respondJSON(w, http.StatusOK, &CategoriesResponse{Categories: categories})
}

func (h *ProductHandler) Category(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category, err := h.catalog.CategoryByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.internalError(w, "failed to get category", err)
		return
	}

	respondJSON(w, http.StatusOK, category)
}

func (h *ProductHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
