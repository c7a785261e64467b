package tunnel

import "errors"

var (
	ErrFailedToCreateTempDir = errors.New("failed to create temporary directory")
	ErrFailedToUploadKey     = errors.New("failed to upload private key")
	ErrFailedToRenderScript  = errors.New("failed to render tunnel script")
	ErrRemoteCommandFailed   = errors.New("remote command failed")
	ErrInvalidPortForwarding = errors.New("invalid local port forwarding")
)
