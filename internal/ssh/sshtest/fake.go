// Package sshtest provides an in-memory ssh.Session for tests.
package sshtest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tunnelmaker/internal/ssh"

	"github.com/kballard/go-shellquote"
)

var ErrFakeTransport = errors.New("fake transport failure")

// Session understands the few shell forms the provisioner sends:
// "echo ARG >> FILE", "chmod MODE FILE" and "mkdir -p DIR", possibly
// chained with "&&". Files are keyed by their literal path, e.g.
// "~/.ssh/authorized_keys".
type Session struct {
	Creds    *ssh.Credentials
	HomeDir  string
	Files    map[string]string
	Modes    map[string]string
	Dirs     map[string]bool
	Commands []string
	Uploads  []string

	// FailOn makes any command containing it exit 1.
	FailOn string
	// FailConnectionTest makes the connection test command exit 255.
	FailConnectionTest bool
	// FailUpload makes Upload return ErrFakeTransport.
	FailUpload bool

	CloseCount int
}

func NewSession(username, host string, port uint) *Session {
	return &Session{
		Creds:   &ssh.Credentials{Username: username, Host: host, Port: port},
		HomeDir: "/home/" + username,
		Files:   map[string]string{},
		Modes:   map[string]string{},
		Dirs:    map[string]bool{},
	}
}

func (s *Session) Target() *ssh.Credentials {
	return s.Creds
}

func (s *Session) Run(command string) (*ssh.CommandResult, error) {
	s.Commands = append(s.Commands, command)

	if s.FailConnectionTest && strings.HasPrefix(command, "echo \"SSH connection successful\"") {
		return &ssh.CommandResult{ExitCode: 255, Stderr: "connection closed"}, nil
	}

	if s.FailOn != "" && strings.Contains(command, s.FailOn) {
		return &ssh.CommandResult{ExitCode: 1, Stderr: "permission denied"}, nil
	}

	words, err := shellquote.Split(command)
	if err != nil {
		return &ssh.CommandResult{ExitCode: 2, Stderr: err.Error()}, nil
	}

	var stdout []string

	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "echo":
			if i+3 < len(words) && words[i+2] == ">>" {
				s.Files[words[i+3]] += words[i+1] + "\n"
				i += 3
			} else if i+1 < len(words) {
				stdout = append(stdout, words[i+1])
				i++
			}
		case "chmod":
			if i+2 < len(words) {
				s.Modes[words[i+2]] = words[i+1]
				i += 2
			}
		case "mkdir":
			if i+2 < len(words) && words[i+1] == "-p" {
				s.Dirs[words[i+2]] = true
				i += 2
			}
		}
	}

	return &ssh.CommandResult{Stdout: strings.Join(stdout, "\n")}, nil
}

func (s *Session) Upload(localPath string) (string, error) {
	if s.FailUpload {
		return "", ErrFakeTransport
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return "", err
	}

	name := filepath.Base(localPath)
	s.Uploads = append(s.Uploads, localPath)
	s.Files["~/"+name] = string(data)
	s.Modes["~/"+name] = info.Mode().Perm().String()

	return s.HomeDir + "/" + name, nil
}

func (s *Session) Close() error {
	s.CloseCount++
	return nil
}

// Lines returns the non-empty lines of a fake file.
func (s *Session) Lines(path string) []string {
	var lines []string
	for _, line := range strings.Split(s.Files[path], "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
