package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/internal/utils"
)

var errInvalidCredentials = apperror.Unauthenticated("Invalid credentials", "Incorrect email or password")

// Register creates an account and signs the caller in
func (u *UserUC) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	hash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &models.User{
		Email:     utils.NormalizeEmail(req.Email),
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		UserType:  req.UserType,
		Address:   req.Address,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsActive:  true,
	}
	if req.UserType == models.RoleWalker {
		user.Description = req.Description
		user.Experience = req.Experience
		user.HourlyRate = req.HourlyRate
	}
	setGeoHash(user)

	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return nil, apperror.Conflict("User already exists", "An account with this email already exists")
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	resp, err := u.authResponse(user)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "User registered",
		logger.String("user_id", user.ID),
		logger.String("email", utils.MaskEmail(user.Email)),
		logger.String("user_type", string(user.UserType)))
	u.publish(ctx, "user registered", u.userGW.PublishUserRegistered, user)

	return resp, nil
}

// Login checks credentials and issues a new session credential. Inactive
// accounts are refused before the password is compared.
func (u *UserUC) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if !user.IsActive {
		return nil, apperror.Unauthenticated("Account deactivated",
			"Your account has been deactivated. Contact support.")
	}

	if err := u.hasher.Compare(user.Password, req.Password); err != nil {
		return nil, errInvalidCredentials
	}

	resp, err := u.authResponse(user)
	if err != nil {
		return nil, err
	}
	u.publish(ctx, "user logged in", u.userGW.PublishUserLoggedIn, user)
	return resp, nil
}

// ChangePassword replaces the password after checking the current one
func (u *UserUC) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperror.MalformedInput("Missing data", "Current password and new password are required")
	}

	user, err := u.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return apperror.NotFound("User not found", "Could not find the user profile")
		}
		return apperror.Internal("failed to load user", err)
	}

	if err := u.hasher.Compare(user.Password, req.CurrentPassword); err != nil {
		return apperror.Unauthenticated("Incorrect password", "The current password is not correct")
	}

	hash, err := u.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	if err := u.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.Internal("failed to update password", err)
	}

	u.publish(ctx, "password changed", u.userGW.PublishPasswordChanged, user)
	return nil
}

func (u *UserUC) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := u.tokens.Issue(user.ID, u.cfg.JWT.Expiration)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", fmt.Errorf("issue token for %s: %w", user.ID, err))
	}
	return &models.AuthResponse{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// publish sends an account event. Failures are logged and never fail the
// request that caused them.
func (u *UserUC) publish(ctx context.Context, what string, send func(context.Context, *models.UserEvent) error, user *models.User) {
	event := &models.UserEvent{
		UserID:    user.ID,
		Email:     user.Email,
		UserType:  user.UserType,
		Timestamp: models.Now(),
	}
	if err := send(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish account event",
			logger.String("event", what),
			logger.String("user_id", user.ID),
			logger.Err(err))
	}
}
