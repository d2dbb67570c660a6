package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	wspkg "github.com/piresc/dogwalker/internal/pkg/websocket"
)

// Handler routes chat frames of service rooms
type Handler struct {
	manager     *wspkg.Manager
	registry    *wspkg.Registry
	broadcaster *wspkg.Broadcaster
	// enforceSender replaces a client supplied senderId with the
	// authenticated subject when the connection has one
	enforceSender bool
}

// NewHandler creates the chat frame handler
func NewHandler(manager *wspkg.Manager, registry *wspkg.Registry, broadcaster *wspkg.Broadcaster, cfg models.WebSocketConfig) *Handler {
	return &Handler{
		manager:       manager,
		registry:      registry,
		broadcaster:   broadcaster,
		enforceSender: cfg.EnforceSenderIdentity,
	}
}

// RegisterRoutes mounts GET /ws behind optional authentication
func (h *Handler) RegisterRoutes(e *echo.Echo, gate *middleware.AuthGate) {
	e.GET("/ws", h.HandleWebSocket, gate.OptionalAuth())
}

// HandleWebSocket upgrades the request and serves frames until the client
// disconnects. Anonymous callers get a connection without a subject.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	var subjectID string
	if auth, ok := middleware.AuthFromEcho(c); ok {
		subjectID = auth.SubjectID
	}
	return h.manager.Serve(c, subjectID, h)
}

// HandleFrame implements websocket.FrameHandler
func (h *Handler) HandleFrame(ctx context.Context, conn *wspkg.Conn, msg *models.WSMessage) {
	var err error
	switch msg.Event {
	case constants.EventJoinService:
		err = h.joinService(conn, msg.Data)
	case constants.EventLeaveService:
		err = h.leaveService(conn, msg.Data)
	case constants.EventSendMessage:
		err = h.sendMessage(ctx, conn, msg.Data)
	default:
		err = conn.SendError(constants.ErrorUnknownEvent, "Unknown event: "+msg.Event)
	}

	if err != nil && !errors.Is(err, wspkg.ErrConnectionClosed) {
		logger.WarnCtx(ctx, "Failed to handle websocket frame",
			logger.String("event", msg.Event),
			logger.String("conn_id", conn.ID()),
			logger.Err(err))
	}
}

// RoomID returns the room of a service
func RoomID(serviceID models.FlexibleID) string {
	return constants.ServiceRoomPrefix + serviceID.String()
}

func (h *Handler) joinService(conn *wspkg.Conn, data json.RawMessage) error {
	var serviceID models.FlexibleID
	if err := json.Unmarshal(data, &serviceID); err != nil {
		return conn.SendError(constants.ErrorValidationFailed, "serviceId must be a string or a number")
	}

	room := RoomID(serviceID)
	if err := h.registry.Join(conn.ID(), room); err != nil {
		return err
	}

	return conn.SendEvent(constants.EventJoinedService, models.JoinedServiceData{
		ServiceID: serviceID.String(),
		Room:      room,
	})
}

func (h *Handler) leaveService(conn *wspkg.Conn, data json.RawMessage) error {
	var serviceID models.FlexibleID
	if err := json.Unmarshal(data, &serviceID); err != nil {
		return conn.SendError(constants.ErrorValidationFailed, "serviceId must be a string or a number")
	}

	room := RoomID(serviceID)
	left, err := h.registry.Leave(conn.ID(), room)
	if err != nil {
		return err
	}
	if !left {
		return conn.SendError(constants.ErrorNotJoined, "Not a member of "+room)
	}

	return conn.SendEvent(constants.EventLeftService, models.JoinedServiceData{
		ServiceID: serviceID.String(),
		Room:      room,
	})
}

// sendMessage publishes to the service room. Membership of the sender is
// not required.
func (h *Handler) sendMessage(ctx context.Context, conn *wspkg.Conn, data json.RawMessage) error {
	var payload models.SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil {
		return conn.SendError(constants.ErrorValidationFailed, "Invalid send_message payload")
	}
	if payload.ServiceID == "" {
		return conn.SendError(constants.ErrorValidationFailed, "serviceId is required")
	}
	if isEmptyJSON(payload.Message) {
		return conn.SendError(constants.ErrorValidationFailed, "message is required")
	}

	senderID := payload.SenderID.String()
	if h.enforceSender && conn.SubjectID() != "" {
		senderID = conn.SubjectID()
	}

	result, err := h.broadcaster.Publish(RoomID(payload.ServiceID), payload.Message, senderID)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to publish room message",
			logger.String("service_id", payload.ServiceID.String()),
			logger.Err(err))
		return conn.SendError(constants.ErrorInternalError, "The message could not be delivered")
	}

	logger.DebugCtx(ctx, "Room message published",
		logger.String("service_id", payload.ServiceID.String()),
		logger.Int("delivered", result.Delivered),
		logger.Int("dropped", result.Dropped))
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}
