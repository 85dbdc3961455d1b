package board

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("board authentication failed")
	ErrNotAuthenticated     = errors.New("board session not authenticated")
	ErrRequestFailed        = errors.New("board request failed")
	ErrNetworkFailed        = errors.New("board network failed")
)

// RequestError is any non-2xx answer from the board API.
type RequestError struct {
	Action string
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed (HTTP %d): %s", e.Action, e.Status, e.Detail)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsStatus reports whether err is a RequestError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}
