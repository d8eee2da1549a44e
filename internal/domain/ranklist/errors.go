package ranklist

import "errors"

// ErrPersistence is returned when the store rejects a commit. The list keeps
// its previous items and the caller may retry.
var ErrPersistence = errors.New("persistence failure")
