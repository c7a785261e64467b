package types

import "time"

// Options is the parsed command line of one run.
type Options struct {
	Job1 string
	Job2 string

	LocalPortForwarding string

	SSHPrivateKey     string
	SSHKeyPassphrase  string
	SSHConnectTimeout time.Duration

	APIConfigFile string
	APIProfile    string
	APIBaseURL    string
}
