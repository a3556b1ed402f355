// Package handlers contains the HTTP endpoint handlers.
package handlers

import (
	"context"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

type contextKey string

// ContextKeyUser carries the authenticated user through the request context
const ContextKeyUser contextKey = "user"

// CurrentUser returns the authenticated user stored by the auth middleware
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(ContextKeyUser).(*domain.User)
	return user
}
