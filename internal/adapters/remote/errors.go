package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedStatus is matched by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrNotFound is matched by a StatusError carrying 404.
var ErrNotFound = errors.New("not found")

// ErrNoOwner is returned when the token's user cannot be determined.
var ErrNoOwner = errors.New("remote owner unknown")

// ErrNotOwner is returned when writing a list the token does not own.
var ErrNotOwner = errors.New("user is not the token owner")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s %d: %s", e.Method, e.Path, ErrUnexpectedStatus, e.Code, e.Body)
}

// Is lets errors.Is match ErrUnexpectedStatus and, for 404, ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}
