package models

import (
	"errors"
	"time"
)

// Role is the account type a user registered with
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleWalker Role = "WALKER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleWalker
}

var (
	// ErrUserNotFound is returned by the user store when no row matches
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when the email is already registered
	ErrDuplicateUser = errors.New("user already exists")
)

// Identity is the minimal account snapshot the authorization gate
// re-reads on every request.
type Identity struct {
	ID     string `json:"id" db:"id"`
	Active bool   `json:"isActive" db:"is_active"`
	Role   Role   `json:"userType" db:"user_type"`
}

// User represents an owner or walker account
type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	Password    string    `json:"-" db:"password"`
	FirstName   string    `json:"firstName" db:"first_name"`
	LastName    string    `json:"lastName" db:"last_name"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Avatar      *string   `json:"avatar,omitempty" db:"avatar"`
	UserType    Role      `json:"userType" db:"user_type"`
	Address     *string   `json:"address,omitempty" db:"address"`
	City        *string   `json:"city,omitempty" db:"city"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	GeoHash     *string   `json:"geohash,omitempty" db:"geohash"`
	Description *string   `json:"description,omitempty" db:"description"`
	Experience  *int      `json:"experience,omitempty" db:"experience"`
	HourlyRate  *float64  `json:"hourlyRate,omitempty" db:"hourly_rate"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Identity returns the authorization snapshot of u
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Active: u.IsActive, Role: u.UserType}
}

// UserEvent is published on NATS when an account changes
type UserEvent struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	UserType  Role      `json:"userType"`
	Timestamp time.Time `json:"timestamp"`
}
