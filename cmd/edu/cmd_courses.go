package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/gateway"
	"github.com/licomnaklavy/edu-platform/internal/guard"
)

// cmdCourses lists the catalog with enrollment markers
func cmdCourses() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	courses, err := a.guard.CatalogPage(context.Background())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	fmt.Println("Course Catalog:")
	for _, c := range courses {
		marker := " "
		if c.IsEnrolled {
			marker = "*"
		}
		printCourse(marker, c)
	}
	fmt.Println("\n* = enrolled. Use 'edu enroll <id>' to join a course.")
	return nil
}

// cmdMyCourses lists only the courses the user is enrolled in
func cmdMyCourses() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	courses, err := a.guard.MyCoursesPage(context.Background())
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}

	if len(courses) == 0 {
		fmt.Println("You are not enrolled in any courses yet. Browse with 'edu courses'.")
		return nil
	}

	fmt.Println("My Courses:")
	for _, c := range courses {
		printCourse(" ", c)
	}
	return nil
}

// cmdEnroll joins a course by ID
func cmdEnroll(args []string) error {
	courseID, err := courseIDArg(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	if err := a.guard.EnrollCourse(context.Background(), courseID); err != nil {
		switch {
		case errors.Is(err, guard.ErrAlreadyEnrolled):
			fmt.Println("You are already enrolled in this course.")
			return nil
		case errors.Is(err, domain.ErrCourseNotFound):
			return fmt.Errorf("course %d not found", courseID)
		default:
			return fmt.Errorf("enroll: %w", err)
		}
	}

	fmt.Printf("Enrolled in course %d.\n", courseID)
	return nil
}

// cmdLeave drops a course by ID
func cmdLeave(args []string) error {
	courseID, err := courseIDArg(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	if err := a.guard.LeaveCourse(context.Background(), courseID); err != nil {
		var reqErr *gateway.RequestError
		if errors.As(err, &reqErr) && reqErr.Status == 404 {
			return fmt.Errorf("course %d not found or not enrolled", courseID)
		}
		return fmt.Errorf("leave: %w", err)
	}

	fmt.Printf("Left course %d.\n", courseID)
	return nil
}

func courseIDArg(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("course ID required (see 'edu courses')")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid course ID: %s", args[0])
	}
	return id, nil
}

func printCourse(marker string, c domain.Course) {
	fmt.Printf("%s %3d  %s\n", marker, c.ID, c.Name)
	fmt.Printf("       %s\n", c.Description)
	fmt.Printf("       Level: %s | Hours: %d\n\n", c.Level, c.Hours)
}
