package gateway

import (
	"context"

	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// PublishUserRegistered forwards to the NATS gateway implementation
func (g *UserGW) PublishUserRegistered(ctx context.Context, event *models.UserEvent) error {
	return g.natsGateway.publish(ctx, constants.SubjectUserRegistered, event)
}

// PublishUserLoggedIn forwards to the NATS gateway implementation
func (g *UserGW) PublishUserLoggedIn(ctx context.Context, event *models.UserEvent) error {
	return g.natsGateway.publish(ctx, constants.SubjectUserLoggedIn, event)
}

// PublishPasswordChanged forwards to the NATS gateway implementation
func (g *UserGW) PublishPasswordChanged(ctx context.Context, event *models.UserEvent) error {
	return g.natsGateway.publish(ctx, constants.SubjectUserPasswordChanged, event)
}
