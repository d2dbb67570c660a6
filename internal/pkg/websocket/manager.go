package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// FrameHandler processes one inbound {event, data} frame
type FrameHandler interface {
	HandleFrame(ctx context.Context, conn *Conn, msg *models.WSMessage)
}

// Manager upgrades HTTP requests and runs the read and write loops of each
// connection
type Manager struct {
	registry *Registry
	cfg      models.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager(registry *Registry, cfg models.WebSocketConfig) *Manager {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 * 1024
	}
	return &Manager{
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and blocks until the connection ends. subjectID
// is empty for anonymous callers.
func (m *Manager) Serve(c echo.Context, subjectID string, handler FrameHandler) error {
	conn, err := m.registry.Register(subjectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Server is shutting down")
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		m.registry.Close(conn.ID())
		// the upgrader has already written the failure response
		logger.Warn("WebSocket upgrade failed", logger.Err(err))
		return nil
	}

	if err := m.registry.Open(conn.ID()); err != nil {
		m.registry.Close(conn.ID())
		_ = ws.Close()
		return nil
	}

	logger.Info("WebSocket client connected",
		logger.String("connection_id", conn.ID()),
		logger.String("user_id", subjectID))

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		m.writePump(ws, conn)
	}()

	m.readPump(c.Request().Context(), ws, conn, handler)

	m.registry.Close(conn.ID())
	<-writerDone

	logger.Info("WebSocket client disconnected",
		logger.String("connection_id", conn.ID()),
		logger.String("user_id", subjectID))
	return nil
}

func (m *Manager) readPump(ctx context.Context, ws *websocket.Conn, conn *Conn, handler FrameHandler) {
	ws.SetReadLimit(m.cfg.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	})

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("Error receiving websocket message",
					logger.String("connection_id", conn.ID()),
					logger.Err(err))
			}
			return
		}

		var msg models.WSMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Event == "" {
			_ = conn.SendError(constants.ErrorInvalidFormat, "Frames must be JSON objects with an event field")
			continue
		}
		handler.HandleFrame(ctx, conn, &msg)
	}
}

// writePump is the only writer of ws
func (m *Manager) writePump(ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(m.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case frame := <-conn.Outbound():
			if err := m.write(ws, websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := m.write(ws, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-conn.Done():
			m.flush(ws, conn)
			_ = m.write(ws, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever was queued before the connection closed
func (m *Manager) flush(ws *websocket.Conn, conn *Conn) {
	for {
		select {
		case frame := <-conn.Outbound():
			if m.write(ws, websocket.TextMessage, frame) != nil {
				return
			}
		default:
			return
		}
	}
}

func (m *Manager) write(ws *websocket.Conn, messageType int, data []byte) error {
	_ = ws.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return ws.WriteMessage(messageType, data)
}
