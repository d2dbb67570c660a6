package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/jwt"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	wspkg "github.com/piresc/dogwalker/internal/pkg/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 8, 10, 30, 0, 0, time.UTC)

type chatFixture struct {
	registry *wspkg.Registry
	handler  *Handler
}

func newChatFixture(enforceSender bool) *chatFixture {
	cfg := models.WebSocketConfig{SendQueueSize: 16, EnforceSenderIdentity: enforceSender}
	registry := wspkg.NewRegistry(cfg.SendQueueSize)
	broadcaster := wspkg.NewBroadcaster(registry, wspkg.WithBroadcastClock(func() time.Time { return fixedNow }))
	return &chatFixture{
		registry: registry,
		handler:  NewHandler(wspkg.NewManager(registry, cfg), registry, broadcaster, cfg),
	}
}

func (f *chatFixture) open(t *testing.T, subjectID string) *wspkg.Conn {
	t.Helper()
	conn, err := f.registry.Register(subjectID)
	require.NoError(t, err)
	require.NoError(t, f.registry.Open(conn.ID()))
	return conn
}

func (f *chatFixture) frame(conn *wspkg.Conn, event, data string) {
	f.handler.HandleFrame(context.Background(), conn, &models.WSMessage{Event: event, Data: json.RawMessage(data)})
}

func next(t *testing.T, conn *wspkg.Conn) models.WSMessage {
	t.Helper()
	select {
	case raw := <-conn.Outbound():
		var msg models.WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return models.WSMessage{}
	}
}

func assertIdle(t *testing.T, conn *wspkg.Conn) {
	t.Helper()
	select {
	case raw := <-conn.Outbound():
		t.Fatalf("unexpected frame %s", raw)
	default:
	}
}

func errorCode(t *testing.T, msg models.WSMessage) string {
	t.Helper()
	require.Equal(t, constants.EventError, msg.Event)
	var payload models.WSErrorMessage
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	return payload.Code
}

func TestJoinService(t *testing.T) {
	tests := []struct {
		name string
		data string
		room string
	}{
		{"numeric id", `42`, "service_42"},
		{"string id", `"42"`, "service_42"},
		{"uuid", `"a1b2"`, "service_a1b2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(false)
			conn := f.open(t, "")

			f.frame(conn, constants.EventJoinService, tt.data)

			msg := next(t, conn)
			require.Equal(t, constants.EventJoinedService, msg.Event)
			var ack models.JoinedServiceData
			require.NoError(t, json.Unmarshal(msg.Data, &ack))
			assert.Equal(t, tt.room, ack.Room)
			assert.Equal(t, []string{tt.room}, conn.Rooms())
			assert.Equal(t, 1, f.registry.RoomSize(tt.room))
		})
	}
}

func TestJoinService_InvalidID(t *testing.T) {
	for _, data := range []string{`null`, `""`, `{"id":1}`, `true`} {
		f := newChatFixture(false)
		conn := f.open(t, "")

		f.frame(conn, constants.EventJoinService, data)

		assert.Equal(t, constants.ErrorValidationFailed, errorCode(t, next(t, conn)), data)
		assert.Empty(t, conn.Rooms())
	}
}

func TestLeaveService(t *testing.T) {
	f := newChatFixture(false)
	conn := f.open(t, "")

	f.frame(conn, constants.EventLeaveService, `7`)
	assert.Equal(t, constants.ErrorNotJoined, errorCode(t, next(t, conn)))

	f.frame(conn, constants.EventJoinService, `7`)
	next(t, conn)
	f.frame(conn, constants.EventLeaveService, `"7"`)

	msg := next(t, conn)
	assert.Equal(t, constants.EventLeftService, msg.Event)
	assert.Empty(t, conn.Rooms())
	assert.Equal(t, 0, f.registry.RoomSize("service_7"))
}

func TestSendMessage_DeliversToRoomMembers(t *testing.T) {
	f := newChatFixture(false)
	owner := f.open(t, "")
	walker := f.open(t, "")
	outsider := f.open(t, "")

	f.frame(owner, constants.EventJoinService, `42`)
	next(t, owner)
	f.frame(walker, constants.EventJoinService, `"42"`)
	next(t, walker)

	f.frame(outsider, constants.EventSendMessage, `{"serviceId":42,"message":"on my way","senderId":"w-1"}`)

	for _, conn := range []*wspkg.Conn{owner, walker} {
		msg := next(t, conn)
		require.Equal(t, constants.EventReceiveMessage, msg.Event)
		var room models.RoomMessage
		require.NoError(t, json.Unmarshal(msg.Data, &room))
		assert.JSONEq(t, `"on my way"`, string(room.Message))
		assert.Equal(t, "w-1", room.SenderID)
		assert.True(t, fixedNow.Equal(room.Timestamp))
	}
	assertIdle(t, outsider)
}

func TestSendMessage_StructuredMessageKeptVerbatim(t *testing.T) {
	f := newChatFixture(false)
	conn := f.open(t, "")
	f.frame(conn, constants.EventJoinService, `1`)
	next(t, conn)

	f.frame(conn, constants.EventSendMessage, `{"serviceId":"1","message":{"text":"hi","photo":null},"senderId":9}`)

	var room models.RoomMessage
	require.NoError(t, json.Unmarshal(next(t, conn).Data, &room))
	assert.JSONEq(t, `{"text":"hi","photo":null}`, string(room.Message))
	assert.Equal(t, "9", room.SenderID)
}

func TestSendMessage_Validation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `"hello"`},
		{"missing service", `{"message":"hi"}`},
		{"missing message", `{"serviceId":1}`},
		{"null message", `{"serviceId":1,"message":null}`},
		{"empty message", `{"serviceId":1,"message":""}`},
		{"bad sender", `{"serviceId":1,"message":"hi","senderId":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(false)
			conn := f.open(t, "")

			f.frame(conn, constants.EventSendMessage, tt.data)

			assert.Equal(t, constants.ErrorValidationFailed, errorCode(t, next(t, conn)))
		})
	}
}

func TestSendMessage_SenderIdentity(t *testing.T) {
	tests := []struct {
		name     string
		enforce  bool
		subject  string
		expected string
	}{
		{"trusted when not enforced", false, "u-1", "spoofed"},
		{"replaced when enforced", true, "u-1", "u-1"},
		{"kept for anonymous connections", true, "", "spoofed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(tt.enforce)
			conn := f.open(t, tt.subject)
			f.frame(conn, constants.EventJoinService, `5`)
			next(t, conn)

			f.frame(conn, constants.EventSendMessage, `{"serviceId":5,"message":"hi","senderId":"spoofed"}`)

			var room models.RoomMessage
			require.NoError(t, json.Unmarshal(next(t, conn).Data, &room))
			assert.Equal(t, tt.expected, room.SenderID)
		})
	}
}

func TestUnknownEvent(t *testing.T) {
	f := newChatFixture(false)
	conn := f.open(t, "")

	f.frame(conn, "dance", `{}`)

	assert.Equal(t, constants.ErrorUnknownEvent, errorCode(t, next(t, conn)))
}

type staticIdentities map[string]models.Identity

func (s staticIdentities) GetIdentity(_ context.Context, subjectID string) (*models.Identity, error) {
	identity, ok := s[subjectID]
	if !ok {
		return nil, fmt.Errorf("get identity: %w", models.ErrUserNotFound)
	}
	return &identity, nil
}

func TestHandleWebSocket_OptionalAuthOnUpgrade(t *testing.T) {
	codec := jwt.NewCodec(models.JWTConfig{Secret: "ws-secret"})
	gate := middleware.NewAuthGate(codec, staticIdentities{
		"owner-1": {ID: "owner-1", Active: true, Role: models.RoleOwner},
	})
	f := newChatFixture(true)

	e := echo.New()
	f.handler.RegisterRoutes(e, gate)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	token, _, err := codec.Issue("owner-1", time.Hour)
	require.NoError(t, err)
	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer "+token)

	authed, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = authed.Close() })

	anonymous, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = anonymous.Close() })

	write := func(ws *websocket.Conn, event, data string) {
		require.NoError(t, ws.WriteJSON(models.WSMessage{Event: event, Data: json.RawMessage(data)}))
	}
	read := func(ws *websocket.Conn) models.WSMessage {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg models.WSMessage
		require.NoError(t, ws.ReadJSON(&msg))
		return msg
	}

	write(anonymous, constants.EventJoinService, `3`)
	require.Equal(t, constants.EventJoinedService, read(anonymous).Event)

	write(authed, constants.EventSendMessage, `{"serviceId":3,"message":"hello","senderId":"someone-else"}`)

	msg := read(anonymous)
	require.Equal(t, constants.EventReceiveMessage, msg.Event)
	var room models.RoomMessage
	require.NoError(t, json.Unmarshal(msg.Data, &room))
	assert.Equal(t, "owner-1", room.SenderID)
	assert.Equal(t, 2, f.registry.ConnectionCount())
}
