package session

import "errors"

var (
	// ErrEmptyName is returned when a candidate name is blank after trimming.
	ErrEmptyName = errors.New("item name is empty")
	// ErrDuplicateItem is returned when the candidate is already ranked.
	ErrDuplicateItem = errors.New("item already ranked")
	// ErrItemNotFound is returned when editing an item that is not ranked.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidTransition is returned for events the current state does not accept.
	ErrInvalidTransition = errors.New("invalid session transition")
)
