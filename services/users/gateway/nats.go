package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// Publisher is the part of the NATS client the gateway uses
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSGateway implements the NATS gateway operations for the users service
type NATSGateway struct {
	client Publisher
}

// NewNATSGateway creates a new NATS gateway. With a nil client every
// publish is a no-op.
func NewNATSGateway(client Publisher) *NATSGateway {
	return &NATSGateway{client: client}
}

func (g *NATSGateway) publish(ctx context.Context, subject string, event interface{}) error {
	if g.client == nil {
		logger.DebugCtx(ctx, "NATS disabled, event not published", logger.String("subject", subject))
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	return g.client.Publish(subject, data)
}
