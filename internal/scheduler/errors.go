package scheduler

import "errors"

// ErrInvalidJob is returned for jobs with a bad spec or no function.
var ErrInvalidJob = errors.New("invalid job")
