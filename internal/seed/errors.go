package seed

import "errors"

// ErrInvalidSeed is returned for malformed seed documents.
var ErrInvalidSeed = errors.New("invalid seed")
