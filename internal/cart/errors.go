package cart

import "errors"

var (
	ErrPersistFailed   = errors.New("failed to persist cart")
	ErrInvalidSnapshot = errors.New("invalid cart snapshot")
)
