package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

// AuthResponse is the backend's reply to a successful login or registration
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// ProfileUpdate is the payload for a profile edit. An empty Password means
// "keep the current one" — the backend treats it as a no-change sentinel.
type ProfileUpdate struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login authenticates with the backend and, on success, persists the
// returned token and user as the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Path:   "/auth/login",
		Method: http.MethodPost,
		Body:   credentialsRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := c.sessions.WriteSession(resp.AccessToken, &resp.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &resp, nil
}

// Register creates an account; the post-success effect is identical to Login
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Path:   "/auth/register",
		Method: http.MethodPost,
		Body:   credentialsRequest{Email: email, Password: password, Name: name},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := c.sessions.WriteSession(resp.AccessToken, &resp.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &resp, nil
}

// CurrentUser fetches the authenticated identity from the backend. Pure
// read: the session cache is left alone, callers decide whether to refresh
// it.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.Do(ctx, Request{Path: "/users/me", Method: http.MethodGet}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tears down the local session. No network call: the bearer token
// simply stops being presented.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// UpdateProfile saves profile changes and returns the updated user
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*domain.User, error) {
	var user domain.User
	err := c.Do(ctx, Request{
		Path:   "/users/me",
		Method: http.MethodPut,
		Body:   update,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Courses returns the full catalog with per-user enrollment flags
func (c *Client) Courses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if err := c.Do(ctx, Request{Path: "/courses", Method: http.MethodGet}, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// MyCourses returns the courses the user is enrolled in
func (c *Client) MyCourses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if err := c.Do(ctx, Request{Path: "/users/me/courses", Method: http.MethodGet}, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Enroll adds the user to a course
func (c *Client) Enroll(ctx context.Context, courseID int64) error {
	return c.Do(ctx, Request{
		Path:   fmt.Sprintf("/users/me/courses/%d", courseID),
		Method: http.MethodPost,
	}, nil)
}

// Leave removes the user from a course
func (c *Client) Leave(ctx context.Context, courseID int64) error {
	return c.Do(ctx, Request{
		Path:   fmt.Sprintf("/users/me/courses/%d", courseID),
		Method: http.MethodDelete,
	}, nil)
}
