package usecase

import (
	"context"
	"errors"

	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/internal/utils"
)

// GetProfile returns the caller's full profile
func (u *UserUC) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := u.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperror.NotFound("User not found", "Could not find the user profile")
		}
		return nil, apperror.Internal("failed to load profile", err)
	}
	return user, nil
}

// UpdateProfile applies the provided fields only. Walker fields are ignored
// for owners.
func (u *UserUC) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	assign(&user.FirstName, req.FirstName)
	assign(&user.LastName, req.LastName)
	assignPtr(&user.Phone, req.Phone)
	assignPtr(&user.Avatar, req.Avatar)
	assignPtr(&user.Address, req.Address)
	assignPtr(&user.City, req.City)
	assignPtr(&user.Latitude, req.Latitude)
	assignPtr(&user.Longitude, req.Longitude)
	if user.UserType == models.RoleWalker {
		assignPtr(&user.Description, req.Description)
		assignPtr(&user.Experience, req.Experience)
		assignPtr(&user.HourlyRate, req.HourlyRate)
	}
	if req.Latitude != nil || req.Longitude != nil {
		setGeoHash(user)
	}

	if err := u.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperror.NotFound("User not found", "Could not find the user profile")
		}
		return nil, apperror.Internal("failed to update profile", err)
	}
	return user, nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func assignPtr[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// setGeoHash keeps the proximity key in step with the coordinates
func setGeoHash(user *models.User) {
	if user.Latitude == nil || user.Longitude == nil {
		user.GeoHash = nil
		return
	}
	hash := utils.EncodeLocation(*user.Latitude, *user.Longitude)
	user.GeoHash = &hash
}
