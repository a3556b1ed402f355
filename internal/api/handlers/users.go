package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/licomnaklavy/edu-platform/internal/auth"
)

// UserHandler handles the profile endpoints
type UserHandler struct {
	authService *auth.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{authService: authService}
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentUser(r.Context()))
}

// UpdateProfileRequest is the request body for a profile edit. An empty
// password keeps the current one.
type UpdateProfileRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Update handles PUT /users/me
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		badRequest(w, r, "Email and name are required")
		return
	}

	user := CurrentUser(r.Context())
	updated, err := h.authService.UpdateProfile(r.Context(), user, auth.UpdateProfileRequest{
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

	writeJSON(w, http.StatusOK, updated)
}
