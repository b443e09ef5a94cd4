package session

import "errors"

// Result is the {success, error} shape consumers render inline.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResultOf converts an operation error into a Result carrying a message fit
// for display. Storage details never reach the message.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Success: false, Error: Message(err)}
}

func Message(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateAccount):
		return "An account with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrRegistrationFailed):
		return "Registration failed. Please try again."
	case errors.Is(err, ErrLoginFailed):
		return "Login failed. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
