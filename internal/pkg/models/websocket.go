package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FlexibleID accepts either a JSON string or a JSON number. Clients send
// service and sender ids in both forms.
type FlexibleID string

var errInvalidID = errors.New("id must be a non-empty string or number")

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errInvalidID
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return errInvalidID
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errInvalidID
	}
	*id = FlexibleID(n.String())
	return nil
}

// String returns the id as text
func (id FlexibleID) String() string {
	return string(id)
}

// SendMessageData is the payload of a send_message event
type SendMessageData struct {
	ServiceID FlexibleID      `json:"serviceId"`
	Message   json.RawMessage `json:"message"`
	SenderID  FlexibleID      `json:"senderId"`
}

// JoinedServiceData acknowledges a join_service event
type JoinedServiceData struct {
	ServiceID string `json:"serviceId"`
	Room      string `json:"room"`
}

// RoomMessage is the receive_message payload delivered to room members.
// Timestamp is assigned by the server at publish time.
type RoomMessage struct {
	Message   json.RawMessage `json:"message"`
	SenderID  string          `json:"senderId"`
	Timestamp time.Time       `json:"timestamp"`
}
