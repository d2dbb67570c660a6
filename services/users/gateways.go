package users

import (
	"context"

	"github.com/piresc/dogwalker/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/dogwalker/services/users UserGW

// UserGW publishes account events to other services
type UserGW interface {
	PublishUserRegistered(ctx context.Context, event *models.UserEvent) error
	PublishUserLoggedIn(ctx context.Context, event *models.UserEvent) error
	PublishPasswordChanged(ctx context.Context, event *models.UserEvent) error
}
