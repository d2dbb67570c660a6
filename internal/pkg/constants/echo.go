package constants

// Echo context keys
const (
	// EchoKeyAuth holds the *context.Auth resolved by the authorization gate
	EchoKeyAuth = "auth"
	// EchoKeyUserID holds the authenticated subject id for request logging
	EchoKeyUserID = "user_id"
)
