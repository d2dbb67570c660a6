package constants

// WebSocket event types
const (
	// Common events
	EventError = "error"

	// Service room events
	EventJoinService    = "join_service"
	EventJoinedService  = "joined_service"
	EventLeaveService   = "leave_service"
	EventLeftService    = "left_service"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

// ServiceRoomPrefix prefixes the room of a service; a service with id 42
// maps to room "service_42".
const ServiceRoomPrefix = "service_"

// WebSocket error codes
const (
	ErrorInvalidFormat    = "invalid_format"
	ErrorValidationFailed = "validation_failed"
	ErrorUnknownEvent     = "unknown_event"
	ErrorNotJoined        = "not_joined"
	ErrorInternalError    = "internal_error"
)
