package websocket

import (
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func drain(conn *Conn) []models.RoomMessage {
	var out []models.RoomMessage
	for {
		select {
		case frame := <-conn.Outbound():
			var msg models.WSMessage
			if err := json.Unmarshal(frame, &msg); err != nil || msg.Event != constants.EventReceiveMessage {
				continue
			}
			var room models.RoomMessage
			if err := json.Unmarshal(msg.Data, &room); err == nil {
				out = append(out, room)
			}
		default:
			return out
		}
	}
}

func TestBroadcaster_DeliversOnlyToMembers(t *testing.T) {
	r := NewRegistry(8)
	b := NewBroadcaster(r, WithBroadcastClock(func() time.Time { return fixedNow }))
	c1 := openConn(t, r, "")
	c2 := openConn(t, r, "")
	c3 := openConn(t, r, "")
	require.NoError(t, r.Join(c1.ID(), "service_5"))
	require.NoError(t, r.Join(c3.ID(), "service_6"))

	result, err := b.Publish("service_5", json.RawMessage(`"hi"`), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 0, result.Dropped)

	got := drain(c1)
	require.Len(t, got, 1)
	assert.JSONEq(t, `"hi"`, string(got[0].Message))
	assert.Equal(t, "u1", got[0].SenderID)
	assert.True(t, fixedNow.Equal(got[0].Timestamp))

	assert.Empty(t, drain(c2))
	assert.Empty(t, drain(c3))
}

func TestBroadcaster_SkipsClosedConnections(t *testing.T) {
	r := NewRegistry(8)
	b := NewBroadcaster(r)
	c1 := openConn(t, r, "")
	c2 := openConn(t, r, "")
	require.NoError(t, r.Join(c1.ID(), "service_5"))
	require.NoError(t, r.Join(c2.ID(), "service_5"))

	r.Close(c1.ID())

	result, err := b.Publish("service_5", json.RawMessage(`"after close"`), "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Empty(t, drain(c1))
	assert.Len(t, drain(c2), 1)
}

func TestBroadcaster_UnknownAndDormantRooms(t *testing.T) {
	r := NewRegistry(8)
	b := NewBroadcaster(r, WithBroadcastClock(func() time.Time { return fixedNow }))

	result, err := b.Publish("service_404", json.RawMessage(`"nobody"`), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Delivered)
	assert.True(t, fixedNow.Equal(result.Message.Timestamp))

	conn := openConn(t, r, "")
	require.NoError(t, r.Join(conn.ID(), "service_1"))
	_, err = r.Leave(conn.ID(), "service_1")
	require.NoError(t, err)

	result, err = b.Publish("service_1", json.RawMessage(`"dormant"`), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Delivered)
}

func TestBroadcaster_DropsWhenQueueIsFull(t *testing.T) {
	r := NewRegistry(2)
	b := NewBroadcaster(r)
	slow := openConn(t, r, "")
	require.NoError(t, r.Join(slow.ID(), "service_1"))

	var dropped int
	for i := 0; i < 5; i++ {
		result, err := b.Publish("service_1", json.RawMessage(strconv.Itoa(i)), "u1")
		require.NoError(t, err)
		dropped += result.Dropped
	}

	assert.Equal(t, 3, dropped)
	got := drain(slow)
	require.Len(t, got, 2)
	assert.Equal(t, "0", string(got[0].Message))
	assert.Equal(t, "1", string(got[1].Message))
}

func TestBroadcaster_InvalidContent(t *testing.T) {
	r := NewRegistry(2)
	b := NewBroadcaster(r)
	conn := openConn(t, r, "")
	require.NoError(t, r.Join(conn.ID(), "service_1"))

	_, err := b.Publish("service_1", json.RawMessage(`{not json`), "u1")

	assert.Error(t, err)
	assert.Empty(t, drain(conn))
}

func TestBroadcaster_SubscribersObservePublishOrder(t *testing.T) {
	const publishers, perPublisher = 4, 25
	r := NewRegistry(publishers * perPublisher)
	b := NewBroadcaster(r)
	c1 := openConn(t, r, "")
	c2 := openConn(t, r, "")
	require.NoError(t, r.Join(c1.ID(), "service_1"))
	require.NoError(t, r.Join(c2.ID(), "service_1"))

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				_, _ = b.Publish("service_1", json.RawMessage(strconv.Itoa(p*1000+i)), "u1")
			}
		}(p)
	}
	wg.Wait()

	first := drain(c1)
	second := drain(c2)
	require.Len(t, first, publishers*perPublisher)
	require.Len(t, second, publishers*perPublisher)
	for i := range first {
		assert.Equal(t, string(first[i].Message), string(second[i].Message))
	}
}
