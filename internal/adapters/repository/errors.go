package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidUser  = errors.New("invalid user")
	ErrInvalidItem  = errors.New("invalid ranked item")
	ErrDuplicateRow = errors.New("duplicate spot in rankings")
)
