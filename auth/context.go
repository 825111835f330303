package auth

import (
	"cms/models"
	"cms/ordering"
	"context"
	"errors"
)

type userKey struct{}

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrRoleMissing = errors.New("role not allowed")
)

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user attached by the Router, or nil
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}

// RequireRole builds an authorizer that admits signed-in users holding one of roles
func RequireRole(roles ...models.Role) ordering.Authorizer {
	return func(ctx context.Context) error {
		user := UserFrom(ctx)
		if user == nil || user.ID == 0 {
			return ErrNotSignedIn
		}
		if !user.HasRole(roles...) {
			return ErrRoleMissing
		}
		return nil
	}
}
