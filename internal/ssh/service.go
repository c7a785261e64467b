package ssh

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tunnelmaker/internal/logger"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const DefaultConnectTimeout = 20 * time.Second

const connectionTestCommand = `echo "SSH connection successful"`

var defaultKeyFiles = []string{"id_rsa", "id_ecdsa", "id_ed25519"}

// Service is a goph backed Session
type Service struct {
	client *goph.Client
	creds  *Credentials
}

func NewService() *Service {
	return &Service{}
}

// Dial opens a Session to creds, failing after creds.Timeout.
func Dial(creds *Credentials) (Session, error) {
	s := NewService()

	if err := s.Connect(creds); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) Connect(creds *Credentials) error {
	auth, err := authMethods(creds)

	if err != nil {
		return err
	}

	timeout := creds.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	// job nodes are short lived and never in known_hosts
	client, err := dial(&goph.Config{
		User:     creds.Username,
		Addr:     creds.Host,
		Port:     creds.Port,
		Auth:     auth,
		Timeout:  timeout,
		Callback: ssh.InsecureIgnoreHostKey(),
	})

	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFailedToCreateSSHClient, creds, err)
	}

	s.client = client
	s.creds = creds
	return nil
}

// dial is goph.NewConn with config.Timeout bounding the SSH handshake as
// well as the TCP connect.
func dial(config *goph.Config) (*goph.Client, error) {
	addr := net.JoinHostPort(config.Addr, strconv.FormatUint(uint64(config.Port), 10))

	conn, err := net.DialTimeout("tcp", addr, config.Timeout)
	if err != nil {
		return nil, err
	}

	if err := conn.SetDeadline(time.Now().Add(config.Timeout)); err != nil {
		conn.Close()
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            config.User,
		Auth:            config.Auth,
		Timeout:         config.Timeout,
		HostKeyCallback: config.Callback,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, err
	}

	return &goph.Client{Client: ssh.NewClient(sshConn, chans, reqs), Config: config}, nil
}

func authMethods(creds *Credentials) (goph.Auth, error) {
	if creds.PrivateKeyPath != "" {
		auth, err := goph.Key(creds.PrivateKeyPath, creds.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
		}
		return auth, nil
	}

	var auth goph.Auth

	if goph.HasAgent() {
		if agentAuth, err := goph.UseAgent(); err == nil {
			auth = append(auth, agentAuth...)
		}
	}

	var signers []ssh.Signer

	if homeDir, err := os.UserHomeDir(); err == nil {
		for _, name := range defaultKeyFiles {
			keyBytes, err := os.ReadFile(filepath.Join(homeDir, ".ssh", name))
			if err != nil {
				continue
			}
			// encrypted or unsupported default keys are skipped
			signer, err := ssh.ParsePrivateKey(keyBytes)
			if err != nil {
				continue
			}
			signers = append(signers, signer)
		}
	}

	if len(signers) > 0 {
		auth = append(auth, ssh.PublicKeys(signers...))
	}

	if len(auth) == 0 {
		return nil, ErrNoAuthMethodProvided
	}

	return auth, nil
}

// NeedsPassphrase reports whether the private key at keyPath is encrypted.
func NeedsPassphrase(keyPath string) (bool, error) {
	keyBytes, err := os.ReadFile(keyPath)

	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
	}

	_, err = ssh.ParsePrivateKey(keyBytes)

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
	}

	return false, nil
}

func (s *Service) Target() *Credentials {
	return s.creds
}

func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}

	err := s.client.Close()
	s.client = nil
	return err
}

func (s *Service) Run(command string) (*CommandResult, error) {
	if s.client == nil {
		return nil, ErrSSHConnectionNotEstablished
	}

	cmd, err := s.client.Command(command)
	if err != nil {
		return nil, fmt.Errorf("failed to create command: %w", err)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	result := &CommandResult{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	if err != nil {
		result.Error = err
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			result.ExitCode = -1
		}
	} else {
		result.ExitCode = 0
	}

	return result, nil
}

func (s *Service) openSftp() (*sftp.Client, error) {
	ftp, err := s.client.NewSftp()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpenSFTP, err)
	}
	return ftp, nil
}

func (s *Service) Upload(localPath string) (string, error) {
	if s.client == nil {
		return "", ErrSSHConnectionNotEstablished
	}

	local, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}
	defer local.Close()

	info, err := local.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}

	ftp, err := s.openSftp()
	if err != nil {
		return "", err
	}
	defer ftp.Close()

	// relative paths land in the login directory
	remoteName := filepath.Base(localPath)

	remote, err := ftp.OpenFile(remoteName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}

	if _, err := io.Copy(remote, local); err != nil {
		remote.Close()
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}

	if err := remote.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}

	if err := ftp.Chmod(remoteName, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadFile, err)
	}

	wd, err := ftp.Getwd()
	if err != nil {
		return remoteName, nil
	}

	return path.Join(wd, remoteName), nil
}

// VerifyConnection runs a trivial command on session and fails unless it
// exits cleanly.
func VerifyConnection(session Session, log *logger.Logger) error {
	target := session.Target()

	log.Info("Testing SSH connection to %s", target.Host)

	result, err := session.Run(connectionTestCommand)

	if err == nil && result.ExitCode != 0 {
		err = fmt.Errorf("exit code %d: %s", result.ExitCode, result.Stderr)
	}

	if err != nil {
		log.Error("Could not connect to %s.", target.Host)
		return fmt.Errorf("%w: %s: %v", ErrFailedToTestSSHConnection, target, err)
	}

	log.Info("SSH connection successful")
	return nil
}
