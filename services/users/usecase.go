package users

import (
	"context"
	"time"

	"github.com/piresc/dogwalker/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/dogwalker/services/users UserUC,PasswordHasher,TokenIssuer

// UserUC represents the account usecase interface
type UserUC interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error
}

// PasswordHasher hashes and checks account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer mints session credentials
type TokenIssuer interface {
	Issue(subjectID string, ttl time.Duration) (string, time.Time, error)
}
