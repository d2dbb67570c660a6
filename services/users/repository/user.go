package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password, first_name, last_name, phone, avatar, user_type,
	address, city, latitude, longitude, geohash, description, experience, hourly_rate,
	is_active, created_at, updated_at`

// CreateUser inserts user, assigning its id and timestamps
func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := models.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password, first_name, last_name, phone, avatar, user_type,
			address, city, latitude, longitude, geohash, description, experience, hourly_rate,
			is_active, created_at, updated_at
		) VALUES (:id, :email, :password, :first_name, :last_name, :phone, :avatar, :user_type,
			:address, :city, :latitude, :longitude, :geohash, :description, :experience, :hourly_rate,
			:is_active, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create user %s: %w", user.Email, models.ErrDuplicateUser)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUserByField(ctx, "email", email)
}

// GetUserByID retrieves a user by id
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user %q: %w", id, models.ErrUserNotFound)
	}
	return r.getUserByField(ctx, "id", id)
}

// GetIdentity reads the fields the authorization gate needs, nothing more
func (r *UserRepo) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("identity %q: %w", id, models.ErrUserNotFound)
	}

	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT id, is_active, user_type FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %s: %w", id, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return &identity, nil
}

// UpdateProfile writes the editable profile columns of user
func (r *UserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = models.Now()

	query := `
		UPDATE users SET first_name = :first_name, last_name = :last_name, phone = :phone,
			avatar = :avatar, address = :address, city = :city, latitude = :latitude,
			longitude = :longitude, geohash = :geohash, description = :description,
			experience = :experience, hourly_rate = :hourly_rate, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOneRow(result, user.ID)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, models.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(result, id)
}

// getUserByField is a helper function to get a user by a specific column
func (r *UserRepo) getUserByField(ctx context.Context, field, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, field)

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s=%s: %w", field, value, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func expectOneRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrUserNotFound)
	}
	return nil
}
