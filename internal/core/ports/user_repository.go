package ports

import (
	"context"

	"github.com/studioperennis/auth-api/internal/core/domain"
)

// UserRepository defines the interface for user persistence. Email uniqueness
// is enforced at the storage layer; Create must return domain.ErrEmailTaken
// on a duplicate so that concurrent signups for the same address resolve to
// exactly one winner.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
