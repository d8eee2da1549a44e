package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrSessionInProgress = errors.New("a ranking session is already in progress")
	ErrNoActiveSession   = errors.New("no active ranking session")
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidUser       = errors.New("invalid user")
)
