package domain

type SessionStatus string

const (
	SessionInitializing    SessionStatus = "INITIALIZING"
	SessionUnauthenticated SessionStatus = "UNAUTHENTICATED"
	SessionAuthenticating  SessionStatus = "AUTHENTICATING"
	SessionAuthenticated   SessionStatus = "AUTHENTICATED"
)

// IsSettled reports whether the UI may render either the signed-in or the
// signed-out branch.
func (s SessionStatus) IsSettled() bool {
	return s == SessionUnauthenticated || s == SessionAuthenticated
}

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}
