package ssh

import (
	"fmt"
	"time"
)

// Credentials describes one SSH target and how to authenticate to it
type Credentials struct {
	Host     string
	Port     uint
	Username string
	// Key-based authentication; empty falls back to the agent and default keys
	PrivateKeyPath string
	// Passphrase for private key (if encrypted)
	Passphrase string
	Timeout    time.Duration
}

func (c *Credentials) String() string {
	return fmt.Sprintf("%s@%s:%d", c.Username, c.Host, c.Port)
}

type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Error    error
}

// Session is an open connection to one remote host.
type Session interface {
	Target() *Credentials
	Run(command string) (*CommandResult, error)
	// Upload copies a local file into the remote home directory and
	// returns the remote path.
	Upload(localPath string) (string, error)
	Close() error
}
