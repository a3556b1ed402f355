package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

// CourseStore implements the course catalog and enrollments backed by
// PostgreSQL.
type CourseStore struct {
	pool *pgxpool.Pool
}

// NewCourseStore creates a new PostgreSQL-backed course store.
func NewCourseStore(pool *pgxpool.Pool) *CourseStore {
	return &CourseStore{pool: pool}
}

// CreateCourse inserts a course and assigns its ID.
func (s *CourseStore) CreateCourse(ctx context.Context, course *domain.Course) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO courses (name, description, hours, level)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		course.Name, course.Description, course.Hours, course.Level,
	).Scan(&course.ID)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetCourse retrieves a course by ID.
func (s *CourseStore) GetCourse(ctx context.Context, id int64) (*domain.Course, error) {
	course := &domain.Course{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, hours, level
		FROM courses WHERE id = $1`, id).Scan(
		&course.ID, &course.Name, &course.Description, &course.Hours, &course.Level,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select course: %w", err)
	}
	return course, nil
}

// ListCourses returns the full catalog with the enrollment flag computed for
// the given user.
func (s *CourseStore) ListCourses(ctx context.Context, userID int64) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.hours, c.level,
			EXISTS (
				SELECT 1 FROM enrollments e
				WHERE e.course_id = c.id AND e.user_id = $1
			)
		FROM courses c ORDER BY c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows, true)
}

// ListEnrolled returns the courses the user is enrolled in.
func (s *CourseStore) ListEnrolled(ctx context.Context, userID int64) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.hours, c.level
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows, false)
}

// Enroll adds the user to a course. Enrolling twice is a no-op; an unknown
// course is an error.
func (s *CourseStore) Enroll(ctx context.Context, userID, courseID int64) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (user_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, courseID)
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// Leave removes the user's enrollment.
func (s *CourseStore) Leave(ctx context.Context, userID, courseID int64) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotEnrolled
	}
	return nil
}

func scanCourses(rows pgx.Rows, withEnrollment bool) ([]domain.Course, error) {
	courses := []domain.Course{}
	for rows.Next() {
		var c domain.Course
		var err error
		if withEnrollment {
			err = rows.Scan(&c.ID, &c.Name, &c.Description, &c.Hours, &c.Level, &c.IsEnrolled)
		} else {
			err = rows.Scan(&c.ID, &c.Name, &c.Description, &c.Hours, &c.Level)
		}
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}
