package rescale

import "errors"

var (
	ErrFailedToCreateRequest = errors.New("failed to create request")
	ErrFailedToSendRequest   = errors.New("failed to send request")
	ErrUnexpectedStatus      = errors.New("unexpected response status")
	ErrFailedToDecodePage    = errors.New("failed to decode response page")
	ErrInvalidNextLink       = errors.New("invalid pagination link")
)

// Head node selection errors
var (
	ErrNoInstances       = errors.New("no instances found for job")
	ErrNoPrimaryInstance = errors.New("no MPI_MASTER instance among several job instances")
)
