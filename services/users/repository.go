package users

import (
	"context"

	"github.com/piresc/dogwalker/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/dogwalker/services/users UserRepo

// UserRepo is the account store. Lookups that match no row return an
// error wrapping models.ErrUserNotFound.
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetIdentity(ctx context.Context, id string) (*models.Identity, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
