package gateway

import (
	natspkg "github.com/piresc/dogwalker/internal/pkg/nats"
	"github.com/piresc/dogwalker/services/users"
)

// UserGW handles user gateway operations
type UserGW struct {
	natsGateway *NATSGateway
}

// NewUserGW creates the gateway. A nil client disables event publishing.
func NewUserGW(natsClient *natspkg.Client) users.UserGW {
	var publisher Publisher
	if natsClient != nil {
		publisher = natsClient
	}
	return &UserGW{natsGateway: NewNATSGateway(publisher)}
}
