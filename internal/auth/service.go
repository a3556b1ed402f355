// Package auth implements account registration, credential verification and
// bearer-token issuance for the backend service.
package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Repository defines the data access the auth service needs
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// Service handles authentication operations
type Service struct {
	repo       Repository
	tokens     *TokenIssuer
	bcryptCost int
}

// NewService creates an auth service over a user repository
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterRequest contains registration data
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues a signed token. The same error is
// returned for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken signs a fresh token for an already-verified user
func (s *Service) IssueToken(user *domain.User) (string, error) {
	return s.tokens.Issue(user.Email)
}

// Authenticate resolves a bearer token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// UpdateProfileRequest contains a profile edit. An empty Password keeps the
// current hash.
type UpdateProfileRequest struct {
	Email    string
	Name     string
	Password string
}

// UpdateProfile applies a profile edit to the given user
func (s *Service) UpdateProfile(ctx context.Context, user *domain.User, req UpdateProfileRequest) (*domain.User, error) {
	if req.Email != user.Email {
		existing, err := s.repo.GetUserByEmail(ctx, req.Email)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailExists
		}
	}

	user.Email = req.Email
	user.Name = req.Name
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashed)
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
