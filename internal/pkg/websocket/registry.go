package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// DefaultSendQueueSize is the outbound queue length used when none is configured
const DefaultSendQueueSize = 64

// Registry owns live connections and room memberships. Rooms are created on
// first join and kept after their last member leaves.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Conn
	rooms     map[string]*room
	queueSize int
	closed    bool
}

// NewRegistry creates an empty registry whose connections buffer up to
// queueSize outbound frames
func NewRegistry(queueSize int) *Registry {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}
	return &Registry{
		conns:     make(map[string]*Conn),
		rooms:     make(map[string]*room),
		queueSize: queueSize,
	}
}

// Register adds a connection in the Connecting state. subjectID may be empty.
func (r *Registry) Register(subjectID string) (*Conn, error) {
	conn := newConn(uuid.NewString(), subjectID, r.queueSize)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	r.conns[conn.id] = conn
	return conn, nil
}

// Open moves a connection from Connecting to Open
func (r *Registry) Open(connID string) error {
	conn, ok := r.Get(connID)
	if !ok {
		return ErrConnectionNotFound
	}
	if !conn.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		return ErrConnectionClosed
	}
	return nil
}

// Get returns a registered connection
func (r *Registry) Get(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}

// Join adds the connection to roomID. Joining a room twice is a no-op.
func (r *Registry) Join(connID, roomID string) error {
	conn, ok := r.Get(connID)
	if !ok {
		return ErrConnectionNotFound
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.State() != StateOpen {
		return ErrConnectionClosed
	}
	if _, joined := conn.rooms[roomID]; joined {
		return nil
	}

	rm := r.roomFor(roomID)
	rm.mu.Lock()
	rm.members[conn.id] = conn
	rm.mu.Unlock()
	conn.rooms[roomID] = rm
	return nil
}

// Leave removes the connection from roomID. It reports whether the
// connection was a member.
func (r *Registry) Leave(connID, roomID string) (bool, error) {
	conn, ok := r.Get(connID)
	if !ok {
		return false, ErrConnectionNotFound
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	rm, joined := conn.rooms[roomID]
	if !joined {
		return false, nil
	}
	rm.mu.Lock()
	delete(rm.members, conn.id)
	rm.mu.Unlock()
	delete(conn.rooms, roomID)
	return true, nil
}

// Close removes the connection and all of its memberships. Publishes that
// start afterwards no longer reach it. Closing twice is a no-op.
func (r *Registry) Close(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	delete(r.conns, connID)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.detach(conn)
}

func (r *Registry) detach(conn *Conn) {
	conn.mu.Lock()
	conn.markClosed()
	for id, rm := range conn.rooms {
		rm.mu.Lock()
		delete(rm.members, conn.id)
		rm.mu.Unlock()
		delete(conn.rooms, id)
	}
	conn.mu.Unlock()
}

// ConnectionCount returns the number of registered connections
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomCount returns the number of known rooms, dormant ones included
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// RoomSize returns the current member count of roomID
func (r *Registry) RoomSize(roomID string) int {
	rm := r.lookupRoom(roomID)
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

// Shutdown closes every connection and refuses new ones
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	conns := make([]*Conn, 0, len(r.conns))
	for id, conn := range r.conns {
		conns = append(conns, conn)
		delete(r.conns, id)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.detach(conn)
	}
	logger.Info("WebSocket registry shut down", logger.Int("closed_connections", len(conns)))
	return nil
}

func (r *Registry) roomFor(roomID string) *room {
	if rm := r.lookupRoom(roomID); rm != nil {
		return rm
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = newRoom(roomID)
		r.rooms[roomID] = rm
	}
	return rm
}

func (r *Registry) lookupRoom(roomID string) *room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}
