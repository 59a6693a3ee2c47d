package push

import "errors"

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobNotPending   = errors.New("job is not pending")
	ErrJobBusy         = errors.New("job is being processed")
	ErrContactNotFound = errors.New("contact not found")
	ErrEmptyBatch      = errors.New("push job needs at least one profile")
)
