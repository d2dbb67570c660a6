package models

import "time"

// RegisterRequest is the payload of POST /api/auth/register
type RegisterRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6,max=50"`
	FirstName   string   `json:"firstName" validate:"required,min=2,max=30"`
	LastName    string   `json:"lastName" validate:"required,min=2,max=30"`
	Phone       *string  `json:"phone" validate:"omitempty,min=8,max=20,phone"`
	UserType    Role     `json:"userType" validate:"required,oneof=OWNER WALKER"`
	Address     *string  `json:"address" validate:"omitempty,min=5,max=200"`
	City        *string  `json:"city" validate:"omitempty,min=2,max=50"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Experience  *int     `json:"experience" validate:"omitempty,min=0,max=60"`
	HourlyRate  *float64 `json:"hourlyRate" validate:"omitempty,gt=0"`
}

// LoginRequest is the payload of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries only the fields the caller wants changed
type UpdateProfileRequest struct {
	FirstName   *string  `json:"firstName" validate:"omitempty,min=2,max=30"`
	LastName    *string  `json:"lastName" validate:"omitempty,min=2,max=30"`
	Phone       *string  `json:"phone" validate:"omitempty,min=8,max=20,phone"`
	Avatar      *string  `json:"avatar" validate:"omitempty,url"`
	Address     *string  `json:"address" validate:"omitempty,min=5,max=200"`
	City        *string  `json:"city" validate:"omitempty,min=2,max=50"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Experience  *int     `json:"experience" validate:"omitempty,min=0,max=60"`
	HourlyRate  *float64 `json:"hourlyRate" validate:"omitempty,gt=0"`
}

// ChangePasswordRequest is the payload of PUT /api/auth/change-password.
// Presence is checked by the usecase so both fields report one message.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6,max=50"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
