package commands

import "errors"

var (
	ErrMissingJobID = errors.New("job ID is required")
	ErrSameTarget   = errors.New("both jobs resolve to the same head node")
)
