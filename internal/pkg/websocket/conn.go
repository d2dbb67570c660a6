package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// State is the lifecycle stage of a connection
type State int32

// Connection states. Closed is terminal.
const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionClosed   = errors.New("connection is not open")
	ErrSendQueueFull      = errors.New("send queue is full")
	ErrRegistryClosed     = errors.New("registry is shut down")
)

// Conn is one live duplex connection. Outbound frames go through a bounded
// queue drained by a single writer, so producers never wait on the peer.
type Conn struct {
	id        string
	subjectID string
	state     atomic.Int32

	// mu guards rooms and state transitions. It is always taken before a
	// room lock.
	mu    sync.Mutex
	rooms map[string]*room

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id, subjectID string, queueSize int) *Conn {
	return &Conn{
		id:        id,
		subjectID: subjectID,
		rooms:     make(map[string]*room),
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

// ID returns the server assigned connection id
func (c *Conn) ID() string {
	return c.id
}

// SubjectID returns the authenticated subject, or "" for anonymous connections
func (c *Conn) SubjectID() string {
	return c.subjectID
}

// State returns the current lifecycle state
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Rooms returns the ids of the rooms the connection has joined, sorted
func (c *Conn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Outbound returns the queue drained by the connection writer
func (c *Conn) Outbound() <-chan []byte {
	return c.send
}

// Done is closed once the connection is closed
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// SendEvent queues an {event, data} frame for the peer
func (c *Conn) SendEvent(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(models.WSMessage{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", event, err)
	}
	return c.enqueue(frame)
}

// SendError queues an error event for the peer
func (c *Conn) SendError(code, message string) error {
	return c.SendEvent(constants.EventError, models.WSErrorMessage{Code: code, Message: message})
}

// enqueue never blocks. The send channel is never closed; done signals the
// writer instead, so a late enqueue cannot panic.
func (c *Conn) enqueue(frame []byte) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Conn) markClosed() {
	c.state.Store(int32(StateClosed))
	c.closeOnce.Do(func() { close(c.done) })
}

type room struct {
	id      string
	mu      sync.Mutex
	members map[string]*Conn
}

func newRoom(id string) *room {
	return &room{id: id, members: make(map[string]*Conn)}
}
