package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/licomnaklavy/edu-platform/internal/auth"
	"github.com/licomnaklavy/edu-platform/internal/domain"
)

// AuthHandler handles the credential endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CredentialsRequest is the request body for login and registration
type CredentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TokenResponse is the reply to a successful login or registration
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, r, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			unauthorized(w, r, "Incorrect email or password")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		badRequest(w, r, "Email, name and password are required")
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			badRequest(w, r, "Email already registered")
			return
		}
		internalError(w, r, err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}
