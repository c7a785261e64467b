package commands

import (
	"context"
	"fmt"
	"time"

	"tunnelmaker/internal/commands/types"
	"tunnelmaker/internal/credentials"
	"tunnelmaker/internal/logger"
	"tunnelmaker/internal/rescale"
	"tunnelmaker/internal/ssh"
	"tunnelmaker/internal/tunnel"
)

type HeadNodeResolver interface {
	GetHeadNode(ctx context.Context, jobID string) (*rescale.Instance, error)
}

// Service runs the tunnel workflow. Every collaborator is a field so tests
// can swap the API and SSH sides.
type Service struct {
	Logger *logger.Logger

	ResolveCredentials func(opts *types.Options) (*credentials.Credentials, error)
	NewAPIClient       func(creds *credentials.Credentials) HeadNodeResolver
	Dial               func(creds *ssh.Credentials) (ssh.Session, error)
	Provisioner        *tunnel.Provisioner
}

func NewService(httpTimeout time.Duration, keyBits int, log *logger.Logger) *Service {
	return &Service{
		Logger: log,
		ResolveCredentials: func(opts *types.Options) (*credentials.Credentials, error) {
			return credentials.NewResolver(credentials.Options{
				ConfigFile: opts.APIConfigFile,
				Profile:    opts.APIProfile,
				BaseURL:    opts.APIBaseURL,
			}, log).Resolve()
		},
		NewAPIClient: func(creds *credentials.Credentials) HeadNodeResolver {
			return rescale.NewClient(creds, httpTimeout, log)
		},
		Dial:        ssh.Dial,
		Provisioner: tunnel.NewProvisioner(keyBits, log),
	}
}

// CreateTunnel resolves both jobs, checks SSH access to their head nodes
// and provisions the tunnel from job1 to job2.
func (s *Service) CreateTunnel(ctx context.Context, opts *types.Options) (*tunnel.Result, error) {
	if opts.Job1 == "" || opts.Job2 == "" {
		return nil, ErrMissingJobID
	}

	forwarding, err := tunnel.ParsePortForwarding(opts.LocalPortForwarding)

	if err != nil {
		return nil, err
	}

	creds, err := s.ResolveCredentials(opts)

	if err != nil {
		return nil, err
	}

	api := s.NewAPIClient(creds)

	head1, err := api.GetHeadNode(ctx, opts.Job1)

	if err != nil {
		return nil, err
	}

	head2, err := api.GetHeadNode(ctx, opts.Job2)

	if err != nil {
		return nil, err
	}

	if head1.PublicIP == head2.PublicIP && head1.SSHPort == head2.SSHPort {
		s.Logger.Error("Jobs %q and %q share the head node %s.", opts.Job1, opts.Job2, head1)
		return nil, fmt.Errorf("%w: %s:%d", ErrSameTarget, head1.PublicIP, head1.SSHPort)
	}

	session1, err := s.open(head1, opts)

	if err != nil {
		return nil, err
	}

	defer s.close(session1)

	session2, err := s.open(head2, opts)

	if err != nil {
		return nil, err
	}

	defer s.close(session2)

	if err := ssh.VerifyConnection(session1, s.Logger); err != nil {
		return nil, err
	}

	if err := ssh.VerifyConnection(session2, s.Logger); err != nil {
		return nil, err
	}

	result, err := s.Provisioner.Setup(session1, session2, forwarding)

	if err != nil {
		return nil, err
	}

	s.Logger.Info("DONE")

	return result, nil
}

func (s *Service) open(instance *rescale.Instance, opts *types.Options) (ssh.Session, error) {
	creds := &ssh.Credentials{
		Host:           instance.PublicIP,
		Port:           instance.SSHPort,
		Username:       instance.Username,
		PrivateKeyPath: opts.SSHPrivateKey,
		Passphrase:     opts.SSHKeyPassphrase,
		Timeout:        opts.SSHConnectTimeout,
	}

	s.Logger.Info("Connecting to %s", creds)

	session, err := s.Dial(creds)

	if err != nil {
		s.Logger.Error("Could not connect to %s.", creds.Host)
		return nil, err
	}

	return session, nil
}

func (s *Service) close(session ssh.Session) {
	if err := session.Close(); err != nil {
		s.Logger.Warn("Failed to close SSH connection to %s: %v", session.Target().Host, err)
	}
}
