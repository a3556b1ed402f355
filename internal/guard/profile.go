package guard

import (
	"context"
	"errors"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/gateway"
)

// Password change validation errors
var (
	ErrPasswordFieldsRequired = errors.New("all password fields are required")
	ErrPasswordMismatch       = errors.New("new passwords do not match")
	ErrPasswordTooShort       = errors.New("password must be at least 6 characters")
)

// LoadProfile fetches the current profile for the settings page and
// refreshes the cached user
func (g *Guard) LoadProfile(ctx context.Context) (*domain.User, error) {
	user, err := g.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.sessions.UpdateUser(user); err != nil {
		g.logger.Warn("refresh cached user", "error", err)
	}
	return user, nil
}

// SaveProfile updates email and name, leaving the password untouched. The
// update always carries an explicit empty password field, which the backend
// reads as "keep the current hash".
func (g *Guard) SaveProfile(ctx context.Context, email, name string) (*domain.User, error) {
	user, err := g.api.UpdateProfile(ctx, gateway.ProfileUpdate{
		Email:    email,
		Name:     name,
		Password: "",
	})
	if err != nil {
		return nil, err
	}
	if err := g.sessions.UpdateUser(user); err != nil {
		g.logger.Warn("refresh cached user", "error", err)
	}
	return user, nil
}

// ChangePassword validates the form locally, then saves the new password
// alongside the cached email and name. Current-password verification happens
// server-side through the authenticated request.
func (g *Guard) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	if current == "" || newPassword == "" || confirm == "" {
		return ErrPasswordFieldsRequired
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	cached, ok := g.sessions.ReadUser()
	if !ok {
		return gateway.ErrAuthRequired
	}

	user, err := g.api.UpdateProfile(ctx, gateway.ProfileUpdate{
		Email:    cached.Email,
		Name:     cached.Name,
		Password: newPassword,
	})
	if err != nil {
		return err
	}
	if err := g.sessions.UpdateUser(user); err != nil {
		g.logger.Warn("refresh cached user", "error", err)
	}
	return nil
}
