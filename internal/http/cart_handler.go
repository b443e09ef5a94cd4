package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/cart"
	"github.com/fjod/go_cart/storefront-service/internal/catalog"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(c catalog.Catalog, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		catalog: c,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SetOpenRequestDTO struct {
	Open bool `json:"open"`
}

type CartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice json.Number       `json:"totalPrice"`
	IsOpen     bool              `json:"isOpen"`
}

type ToastResponse struct {
	Message string `json:"message"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(client.Cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.ProductByID(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if err := client.Cart.AddItem(ctx, product.CartItem(req.Quantity), req.Quantity); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(client.Cart))
}

// UpdateQuantity sets the quantity of a line; 0 removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	productID := chi.URLParam(r, "id")
	if !hasLine(client.Cart.Snapshot(), productID) {
		respondError(w, http.StatusNotFound, "not_found", "item not in cart")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	if err := client.Cart.UpdateQuantity(ctx, productID, req.Quantity); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(client.Cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	productID := chi.URLParam(r, "id")
	if !hasLine(client.Cart.Snapshot(), productID) {
		respondError(w, http.StatusNotFound, "not_found", "item not in cart")
		return
	}

	if err := client.Cart.RemoveItem(ctx, productID); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(client.Cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	if err := client.Cart.ClearCart(ctx); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(client.Cart))
}

func (h *CartHandler) SetOpen(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	var req SetOpenRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	client.Cart.SetOpen(req.Open)

	respondJSON(w, http.StatusOK, cartResponse(client.Cart))
}

// GetToast returns the pending notification or 204 when there is none.
func (h *CartHandler) GetToast(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	msg, ok := client.Cart.Toast()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, ToastResponse{Message: msg})
}

func (h *CartHandler) HideToast(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	client.Cart.HideToast()
	w.WriteHeader(http.StatusNoContent)
}

func cartResponse(store *cart.Store) CartResponse {
	snap := store.Snapshot()
	return CartResponse{
		Items:      snap.Items,
		TotalItems: snap.TotalItems,
		TotalPrice: json.Number(snap.TotalPrice.String()),
		IsOpen:     store.IsOpen(),
	}
}

func hasLine(c domain.Cart, productID string) bool {
	for _, item := range c.Items {
		if item.ID == productID {
			return true
		}
	}
	return false
}

// handleCartError maps store errors to HTTP. A persist failure leaves the
// in-memory cart changed, so the client is told the save did not stick.
func handleCartError(w http.ResponseWriter, err error) {
	if errors.Is(err, cart.ErrPersistFailed) {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "cart could not be saved")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
