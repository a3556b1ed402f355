package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

// CourseStore is the catalog and enrollment storage the handler needs
type CourseStore interface {
	ListCourses(ctx context.Context, userID int64) ([]domain.Course, error)
	ListEnrolled(ctx context.Context, userID int64) ([]domain.Course, error)
	Enroll(ctx context.Context, userID, courseID int64) error
	Leave(ctx context.Context, userID, courseID int64) error
}

// CourseHandler handles the catalog and enrollment endpoints
type CourseHandler struct {
	courses CourseStore
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses CourseStore) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List handles GET /courses: the full catalog with the per-user enrollment
// flag.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	courses, err := h.courses.ListCourses(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// MyCourses handles GET /users/me/courses
func (h *CourseHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	courses, err := h.courses.ListEnrolled(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Enroll handles POST /users/me/courses/{id}
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		notFound(w, r, "Course not found")
		return
	}

	user := CurrentUser(r.Context())
	if err := h.courses.Enroll(r.Context(), user.ID, courseID); err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			notFound(w, r, "Course not found")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully enrolled in course"})
}

// Leave handles DELETE /users/me/courses/{id}
func (h *CourseHandler) Leave(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		notFound(w, r, "Course not found or not enrolled")
		return
	}

	user := CurrentUser(r.Context())
	if err := h.courses.Leave(r.Context(), user.ID, courseID); err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) || errors.Is(err, domain.ErrNotEnrolled) {
			notFound(w, r, "Course not found or not enrolled")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully left course"})
}
