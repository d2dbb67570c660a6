package constants

// NATS Subjects
const (
	// Account lifecycle events
	SubjectUserRegistered      = "user.registered"
	SubjectUserLoggedIn        = "user.logged_in"
	SubjectUserPasswordChanged = "user.password_changed"
)
