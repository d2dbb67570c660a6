package websocket

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openConn(t *testing.T, r *Registry, subjectID string) *Conn {
	t.Helper()
	conn, err := r.Register(subjectID)
	require.NoError(t, err)
	require.NoError(t, r.Open(conn.ID()))
	return conn
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(4)

	conn, err := r.Register("user-1")
	require.NoError(t, err)
	assert.Equal(t, StateConnecting, conn.State())
	assert.Equal(t, "user-1", conn.SubjectID())
	assert.NotEmpty(t, conn.ID())

	// joining before the connection opens is refused
	assert.ErrorIs(t, r.Join(conn.ID(), "service_1"), ErrConnectionClosed)

	require.NoError(t, r.Open(conn.ID()))
	assert.Equal(t, StateOpen, conn.State())
	assert.ErrorIs(t, r.Open(conn.ID()), ErrConnectionClosed)
	assert.Equal(t, 1, r.ConnectionCount())

	r.Close(conn.ID())
	r.Close(conn.ID())
	assert.Equal(t, StateClosed, conn.State())
	assert.Equal(t, 0, r.ConnectionCount())

	select {
	case <-conn.Done():
	default:
		t.Fatal("done channel should be closed")
	}

	assert.ErrorIs(t, r.Join(conn.ID(), "service_1"), ErrConnectionNotFound)
	assert.ErrorIs(t, r.Open("missing"), ErrConnectionNotFound)
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry(4)
	conn := openConn(t, r, "")

	require.NoError(t, r.Join(conn.ID(), "service_5"))
	require.NoError(t, r.Join(conn.ID(), "service_5"))
	require.NoError(t, r.Join(conn.ID(), "service_6"))

	assert.Equal(t, 1, r.RoomSize("service_5"))
	assert.Equal(t, []string{"service_5", "service_6"}, conn.Rooms())
}

func TestRegistry_LeaveKeepsRoomDormant(t *testing.T) {
	r := NewRegistry(4)
	conn := openConn(t, r, "")
	require.NoError(t, r.Join(conn.ID(), "service_5"))

	left, err := r.Leave(conn.ID(), "service_5")
	require.NoError(t, err)
	assert.True(t, left)

	left, err = r.Leave(conn.ID(), "service_5")
	require.NoError(t, err)
	assert.False(t, left)

	assert.Equal(t, 0, r.RoomSize("service_5"))
	assert.Equal(t, 1, r.RoomCount())
	assert.Empty(t, conn.Rooms())
}

func TestRegistry_CloseRemovesMemberships(t *testing.T) {
	r := NewRegistry(4)
	c1 := openConn(t, r, "")
	c2 := openConn(t, r, "")
	require.NoError(t, r.Join(c1.ID(), "service_1"))
	require.NoError(t, r.Join(c1.ID(), "service_2"))
	require.NoError(t, r.Join(c2.ID(), "service_1"))

	r.Close(c1.ID())

	assert.Equal(t, 1, r.RoomSize("service_1"))
	assert.Equal(t, 0, r.RoomSize("service_2"))
	assert.Empty(t, c1.Rooms())
}

func TestRegistry_Shutdown(t *testing.T) {
	r := NewRegistry(4)
	c1 := openConn(t, r, "")
	c2 := openConn(t, r, "")
	require.NoError(t, r.Join(c1.ID(), "service_1"))

	require.NoError(t, r.Shutdown(context.Background()))

	assert.Equal(t, StateClosed, c1.State())
	assert.Equal(t, StateClosed, c2.State())
	assert.Equal(t, 0, r.ConnectionCount())
	assert.Equal(t, 0, r.RoomSize("service_1"))

	_, err := r.Register("")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistry_ConcurrentJoinAndClose(t *testing.T) {
	r := NewRegistry(4)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := r.Register("")
			if err != nil {
				return
			}
			_ = r.Open(conn.ID())
			_ = r.Join(conn.ID(), fmt.Sprintf("service_%d", i%5))
			r.Close(conn.ID())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.ConnectionCount())
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, r.RoomSize(fmt.Sprintf("service_%d", i)))
	}
}

func TestConn_SendEventWhenFullOrClosed(t *testing.T) {
	r := NewRegistry(1)
	conn := openConn(t, r, "")

	require.NoError(t, conn.SendEvent("ping", map[string]string{"a": "b"}))
	assert.ErrorIs(t, conn.SendError("internal_error", "x"), ErrSendQueueFull)

	r.Close(conn.ID())
	assert.ErrorIs(t, conn.SendEvent("ping", nil), ErrConnectionClosed)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
