package usecase

import (
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/services/users"
)

// UserUC implements users.UserUC
type UserUC struct {
	userRepo users.UserRepo
	userGW   users.UserGW
	hasher   users.PasswordHasher
	tokens   users.TokenIssuer
	cfg      *models.Config
}

// NewUserUC creates a new user usecase instance
func NewUserUC(
	userRepo users.UserRepo,
	userGW users.UserGW,
	hasher users.PasswordHasher,
	tokens users.TokenIssuer,
	cfg *models.Config,
) *UserUC {
	return &UserUC{
		userRepo: userRepo,
		userGW:   userGW,
		hasher:   hasher,
		tokens:   tokens,
		cfg:      cfg,
	}
}
