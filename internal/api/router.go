package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/licomnaklavy/edu-platform/internal/api/handlers"
	"github.com/licomnaklavy/edu-platform/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux     *http.ServeMux
	app     *App
	auth    *handlers.AuthHandler
	users   *handlers.UserHandler
	courses *handlers.CourseHandler
}

// NewRouter creates the API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux:     http.NewServeMux(),
		app:     app,
		auth:    handlers.NewAuthHandler(app.Auth),
		users:   handlers.NewUserHandler(app.Auth),
		courses: handlers.NewCourseHandler(app.Courses),
	}

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux)
}

func (r *Router) registerRoutes() {
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Credential endpoints, rate limited to slow down guessing
	limit := middleware.RateLimit(r.app.Config.AuthRateLimit)
	r.mux.Handle("POST /auth/login", limit(http.HandlerFunc(r.auth.Login)))
	r.mux.Handle("POST /auth/register", limit(http.HandlerFunc(r.auth.Register)))

	// Everything else requires a bearer token
	r.mux.HandleFunc("GET /users/me", r.requireAuth(r.users.Me))
	r.mux.HandleFunc("PUT /users/me", r.requireAuth(r.users.Update))
	r.mux.HandleFunc("GET /courses", r.requireAuth(r.courses.List))
	r.mux.HandleFunc("GET /users/me/courses", r.requireAuth(r.courses.MyCourses))
	r.mux.HandleFunc("POST /users/me/courses/{id}", r.requireAuth(r.courses.Enroll))
	r.mux.HandleFunc("DELETE /users/me/courses/{id}", r.requireAuth(r.courses.Leave))
}

func (r *Router) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Applied in reverse order (last applied = first executed).
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// requireAuth resolves the bearer token to a user before the handler runs
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token, ok := bearerToken(req)
		if !ok {
			Unauthorized(w, req, "Not authenticated")
			return
		}

		user, err := r.app.Auth.Authenticate(req.Context(), token)
		if err != nil {
			slog.Warn("invalid token",
				"error", err,
				"request_id", middleware.GetRequestID(req.Context()),
			)
			Unauthorized(w, req, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(req.Context(), handlers.ContextKeyUser, user)
		next(w, req.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.app.Ping(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{"database": "unhealthy"},
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{"database": "healthy"},
	})
}
