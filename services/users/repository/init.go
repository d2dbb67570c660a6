package repository

import (
	"github.com/jmoiron/sqlx"
)

// UserRepo implements users.UserRepo on PostgreSQL
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}
