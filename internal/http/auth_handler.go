package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/session"
)

// AuthHandler fronts the per-client session store. Register and login
// answer with the {success, error} result; session.Store sleeps for its
// configured latency before touching the directory.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type RegisterRequestDTO struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	session.Result
	User *domain.Identity `json:"user,omitempty"`
}

type SessionResponse struct {
	Status          string           `json:"status"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	User            *domain.Identity `json:"user,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	var req RegisterRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		respondValidation(w, "email", msg)
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		respondValidation(w, "password", msg)
		return
	}
	if msg := validateConfirmPassword(req.ConfirmPassword, req.Password); msg != "" {
		respondValidation(w, "confirmPassword", msg)
		return
	}

	identity, err := client.Session.Register(r.Context(), req.Email, req.Password)
	respondAuth(w, identity, err, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	var req LoginRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		respondValidation(w, "email", msg)
		return
	}
	if req.Password == "" {
		respondValidation(w, "password", "Password is required")
		return
	}

	identity, err := client.Session.Login(r.Context(), req.Email, req.Password)
	respondAuth(w, identity, err, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	client.Session.Logout(r.Context())
	respondJSON(w, http.StatusOK, session.ResultOf(nil))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	client := getClient(r.Context())
	if client == nil {
		respondError(w, http.StatusBadRequest, "missing_client_id", "X-Client-ID header is required")
		return
	}

	resp := SessionResponse{Status: client.Session.Status().String()}
	if identity, ok := client.Session.Identity(); ok {
		resp.User = &identity
		resp.IsAuthenticated = resp.Status == domain.SessionAuthenticated.String()
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondAuth(w http.ResponseWriter, identity domain.Identity, err error, okStatus int) {
	resp := AuthResponse{Result: session.ResultOf(err)}
	if err != nil {
		respondJSON(w, authErrorStatus(err), resp)
		return
	}
	resp.User = &identity
	respondJSON(w, okStatus, resp)
}

func authErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
