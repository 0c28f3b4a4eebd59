package ports

import (
	"context"

	"github.com/studioperennis/auth-api/internal/core/domain"
)

type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (string, error)
	Signin(ctx context.Context, email, password string) (string, *domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
