package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/licomnaklavy/edu-platform/internal/auth"
	"github.com/licomnaklavy/edu-platform/internal/config"
	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/storage/postgres"
	"github.com/licomnaklavy/edu-platform/internal/storage/sqlite"
)

// CourseRepository is the full course storage surface the app wires up
type CourseRepository interface {
	CreateCourse(ctx context.Context, course *domain.Course) error
	GetCourse(ctx context.Context, id int64) (*domain.Course, error)
	ListCourses(ctx context.Context, userID int64) ([]domain.Course, error)
	ListEnrolled(ctx context.Context, userID int64) ([]domain.Course, error)
	Enroll(ctx context.Context, userID, courseID int64) error
	Leave(ctx context.Context, userID, courseID int64) error
}

// App holds all application dependencies
type App struct {
	Config  *config.Config
	Auth    *auth.Service
	Users   auth.Repository
	Courses CourseRepository

	ping  func(ctx context.Context) error
	close func()
}

// NewApp creates an application instance with the storage backend selected
// by configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.DatabaseDriver {
	case "sqlite":
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		app.Users = sqlite.NewUserStore(db)
		app.Courses = sqlite.NewCourseStore(db)
		app.ping = db.PingContext
		app.close = func() { db.Close() }

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Bootstrap(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		app.Users = postgres.NewUserStore(pool)
		app.Courses = postgres.NewCourseStore(pool)
		app.ping = pool.Ping
		app.close = pool.Close

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	app.Auth = auth.NewService(app.Users, issuer)

	return app, nil
}

// Close releases the storage backend
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

// Ping reports storage health
func (a *App) Ping(ctx context.Context) error {
	if a.ping == nil {
		return nil
	}
	return a.ping(ctx)
}

// Seed fills an empty catalog and, in debug mode, creates demo accounts.
func (a *App) Seed(ctx context.Context) error {
	existing, err := a.Courses.ListCourses(ctx, 0)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}

	if len(existing) == 0 {
		catalog := []domain.Course{
			{Name: "Intro to Programming", Description: "Programming from zero. Learn the basic concepts and write your first programs.", Hours: 12, Level: domain.LevelBeginner},
			{Name: "Web Design", Description: "Building modern web interfaces. Master UX/UI principles and the tooling around them.", Hours: 8, Level: domain.LevelIntermediate},
			{Name: "Advanced JavaScript", Description: "Modern JavaScript features. Asynchronous programming, patterns and best practices.", Hours: 15, Level: domain.LevelAdvanced},
			{Name: "Algorithms Fundamentals", Description: "Core algorithms and data structures. Preparation for technical interviews.", Hours: 10, Level: domain.LevelIntermediate},
			{Name: "Databases for Beginners", Description: "Working with relational databases. SQL queries and schema design.", Hours: 6, Level: domain.LevelBeginner},
			{Name: "Machine Learning", Description: "An introduction to machine learning. Linear regression, classification and neural networks.", Hours: 20, Level: domain.LevelAdvanced},
		}
		for i := range catalog {
			if err := a.Courses.CreateCourse(ctx, &catalog[i]); err != nil {
				return fmt.Errorf("seed course %q: %w", catalog[i].Name, err)
			}
		}
		slog.Info("seeded course catalog", "courses", len(catalog))
	}

	if a.Config.Debug {
		demo := []auth.RegisterRequest{
			{Email: "student@edu.local", Name: "Demo Student", Password: "password123"},
			{Email: "teacher@edu.local", Name: "Demo Teacher", Password: "password123"},
		}
		for _, req := range demo {
			if _, err := a.Auth.Register(ctx, req); err != nil && !errors.Is(err, auth.ErrEmailExists) {
				return fmt.Errorf("seed user %q: %w", req.Email, err)
			}
		}
		slog.Info("demo accounts available", "accounts", len(demo))
	}

	return nil
}
