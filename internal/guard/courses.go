package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

// ErrAlreadyEnrolled is returned before any network call when the catalog
// already shows the course as enrolled.
var ErrAlreadyEnrolled = errors.New("already enrolled in this course")

// CatalogPage loads the course catalog for the authenticated user
func (g *Guard) CatalogPage(ctx context.Context) ([]domain.Course, error) {
	return g.api.Courses(ctx)
}

// MyCoursesPage loads the user's enrolled courses
func (g *Guard) MyCoursesPage(ctx context.Context) ([]domain.Course, error) {
	return g.api.MyCourses(ctx)
}

// EnrollCourse enrolls the user in a course. The catalog is consulted first:
// an unknown course or one already marked enrolled is rejected locally,
// without reaching the backend. A second enroll for the same course while
// one is in flight is rejected by the per-course latch.
func (g *Guard) EnrollCourse(ctx context.Context, courseID int64) error {
	release, err := g.acquire("enroll", courseID)
	if err != nil {
		return err
	}
	defer release()

	courses, err := g.api.Courses(ctx)
	if err != nil {
		return err
	}
	course, ok := findCourse(courses, courseID)
	if !ok {
		return domain.ErrCourseNotFound
	}
	if course.IsEnrolled {
		return ErrAlreadyEnrolled
	}

	if err := g.api.Enroll(ctx, courseID); err != nil {
		return err
	}
	g.logger.Info("enrolled in course", "course_id", courseID, "course", course.Name)
	return nil
}

// LeaveCourse removes the user's enrollment
func (g *Guard) LeaveCourse(ctx context.Context, courseID int64) error {
	release, err := g.acquire("leave", courseID)
	if err != nil {
		return err
	}
	defer release()

	if err := g.api.Leave(ctx, courseID); err != nil {
		return err
	}
	g.logger.Info("left course", "course_id", courseID)
	return nil
}

// acquire latches a mutating action on a single course, mirroring a button
// that is disabled until its request settles
func (g *Guard) acquire(action string, courseID int64) (func(), error) {
	key := fmt.Sprintf("%s/%d", action, courseID)
	if _, loaded := g.actions.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrActionInFlight
	}
	return func() { g.actions.Delete(key) }, nil
}

func findCourse(courses []domain.Course, id int64) (domain.Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Course{}, false
}
