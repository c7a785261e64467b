package ssh

import "errors"

// SSH connection errors
var (
	ErrNoAuthMethodProvided        = errors.New("no valid authentication method provided")
	ErrSSHConnectionNotEstablished = errors.New("SSH connection not established")
	ErrFailedToCreateAuth          = errors.New("failed to create auth")
	ErrFailedToCreateSSHClient     = errors.New("failed to create SSH client")
	ErrFailedToTestSSHConnection   = errors.New("failed to test SSH connection")
)

// File transfer errors
var (
	ErrFailedToOpenSFTP   = errors.New("failed to open SFTP session")
	ErrFailedToUploadFile = errors.New("failed to upload file")
)
