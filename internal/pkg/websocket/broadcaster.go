package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// PublishResult reports how a published message fanned out
type PublishResult struct {
	Message   models.RoomMessage
	Delivered int
	Dropped   int
}

// Broadcaster fans room messages out to the members present at publish time
type Broadcaster struct {
	registry *Registry
	now      func() time.Time
}

// BroadcasterOption customises a Broadcaster
type BroadcasterOption func(*Broadcaster)

// WithBroadcastClock replaces the time source used to stamp messages
func WithBroadcastClock(now func() time.Time) BroadcasterOption {
	return func(b *Broadcaster) {
		b.now = now
	}
}

// NewBroadcaster creates a broadcaster over registry
func NewBroadcaster(registry *Registry, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{registry: registry, now: models.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish stamps the message and queues a receive_message frame to every
// current member of roomID. It never blocks on a subscriber: a member whose
// queue is full misses this message. The room lock is held while stamping
// and queueing, so all members see publishes to a room in the same order.
func (b *Broadcaster) Publish(roomID string, content json.RawMessage, senderID string) (*PublishResult, error) {
	rm := b.registry.lookupRoom(roomID)
	if rm == nil {
		return &PublishResult{Message: models.RoomMessage{
			Message:   content,
			SenderID:  senderID,
			Timestamp: b.now(),
		}}, nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	result := &PublishResult{Message: models.RoomMessage{
		Message:   content,
		SenderID:  senderID,
		Timestamp: b.now(),
	}}

	data, err := json.Marshal(result.Message)
	if err != nil {
		return nil, fmt.Errorf("marshal room message: %w", err)
	}
	frame, err := json.Marshal(models.WSMessage{Event: constants.EventReceiveMessage, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal room frame: %w", err)
	}

	for _, conn := range rm.members {
		switch err := conn.enqueue(frame); {
		case err == nil:
			result.Delivered++
		case errors.Is(err, ErrSendQueueFull):
			result.Dropped++
			logger.Warn("Dropped room message for slow connection",
				logger.String("room", roomID),
				logger.String("connection_id", conn.ID()))
		}
	}
	return result, nil
}
