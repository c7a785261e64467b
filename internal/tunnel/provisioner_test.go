package tunnel

import (
	"errors"
	"os"
	"strings"
	"testing"

	"tunnelmaker/internal/logger"
	"tunnelmaker/internal/ssh/sshtest"

	"golang.org/x/crypto/ssh"
)

func newTestProvisioner(t *testing.T) *Provisioner {
	t.Helper()
	return &Provisioner{Logger: logger.Discard(), KeyBits: 1024, TempDir: t.TempDir()}
}

func defaultForwarding(t *testing.T) PortForwarding {
	t.Helper()
	fwd, err := ParsePortForwarding(DefaultLocalPortForwarding)
	if err != nil {
		t.Fatalf("parse default forwarding: %v", err)
	}
	return fwd
}

func countLinesContaining(lines []string, s string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, s) {
			n++
		}
	}
	return n
}

func TestSetup_DistributesKeysAndWritesScript(t *testing.T) {
	p := newTestProvisioner(t)
	job1 := sshtest.NewSession("user1", "10.0.0.1", 22)
	job2 := sshtest.NewSession("user2", "10.0.0.2", 2201)

	result, err := p.Setup(job1, job2, defaultForwarding(t))

	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// private key on job1 only
	privateKey, ok := job1.Files["~/tunnel_maker_private_key.pem"]
	if !ok {
		t.Fatal("expected private key on job1")
	}
	if len(job1.Uploads) != 1 {
		t.Errorf("expected exactly one upload to job1, got %d", len(job1.Uploads))
	}
	if len(job2.Uploads) != 0 {
		t.Errorf("expected no uploads to job2, got %d", len(job2.Uploads))
	}
	for _, cmd := range job2.Commands {
		if strings.Contains(cmd, "PRIVATE KEY") {
			t.Fatalf("private key material sent to job2: %q", cmd)
		}
	}
	if result.PrivateKeyRemotePath != "/home/user1/tunnel_maker_private_key.pem" {
		t.Errorf("unexpected remote key path %s", result.PrivateKeyRemotePath)
	}
	if job1.Modes["~/tunnel_maker_private_key.pem"] != "-rw-------" {
		t.Errorf("expected private key mode 0600, got %s", job1.Modes["~/tunnel_maker_private_key.pem"])
	}

	// public key line on job2 matches the uploaded private key
	authorized := job2.Lines("~/.ssh/authorized_keys")
	if len(authorized) != 1 {
		t.Fatalf("expected one authorized_keys line, got %d", len(authorized))
	}
	if authorized[0] != result.AuthorizedKey {
		t.Errorf("authorized_keys line %q does not match generated key %q", authorized[0], result.AuthorizedKey)
	}

	signer, err := ssh.ParsePrivateKey([]byte(privateKey))
	if err != nil {
		t.Fatalf("uploaded private key does not parse: %v", err)
	}
	if got := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))); got != authorized[0] {
		t.Errorf("authorized key does not belong to uploaded private key")
	}

	// script on job1
	script := job1.Files["~/create_ssh_tunnel.sh"]
	for _, want := range []string{
		"#!/bin/bash",
		"-L 47827:localhost:47827",
		"user2@10.0.0.2",
		"-p 2201",
		"-i ~/tunnel_maker_private_key.pem",
		"-N -v",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q, got %q", want, script)
		}
	}
	if job1.Modes["~/create_ssh_tunnel.sh"] != "775" {
		t.Errorf("expected script mode 775, got %q", job1.Modes["~/create_ssh_tunnel.sh"])
	}
	if _, ok := job2.Files["~/create_ssh_tunnel.sh"]; ok {
		t.Error("script must not be written to job2")
	}
}

func TestSetup_RemovesTemporaryKeyDirectory(t *testing.T) {
	p := newTestProvisioner(t)
	job1 := sshtest.NewSession("user1", "10.0.0.1", 22)
	job2 := sshtest.NewSession("user2", "10.0.0.2", 22)

	if _, err := p.Setup(job1, job2, defaultForwarding(t)); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	entries, err := os.ReadDir(p.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temporary key directory to be removed, found %d entries", len(entries))
	}
	if _, err := os.Stat(job1.Uploads[0]); !os.IsNotExist(err) {
		t.Errorf("expected local private key to be gone, stat returned %v", err)
	}
}

func TestSetup_RemovesTemporaryKeyDirectoryOnUploadFailure(t *testing.T) {
	p := newTestProvisioner(t)
	job1 := sshtest.NewSession("user1", "10.0.0.1", 22)
	job1.FailUpload = true
	job2 := sshtest.NewSession("user2", "10.0.0.2", 22)

	_, err := p.Setup(job1, job2, defaultForwarding(t))

	if !errors.Is(err, ErrFailedToUploadKey) {
		t.Fatalf("expected ErrFailedToUploadKey, got %v", err)
	}

	entries, _ := os.ReadDir(p.TempDir)
	if len(entries) != 0 {
		t.Errorf("expected temporary key directory to be removed, found %d entries", len(entries))
	}
	if len(job2.Commands) != 0 {
		t.Errorf("expected no commands on job2 after failed upload, got %v", job2.Commands)
	}
}

func TestSetup_IsNotIdempotent(t *testing.T) {
	p := newTestProvisioner(t)
	job1 := sshtest.NewSession("user1", "10.0.0.1", 22)
	job2 := sshtest.NewSession("user2", "10.0.0.2", 22)
	fwd := defaultForwarding(t)

	first, err := p.Setup(job1, job2, fwd)
	if err != nil {
		t.Fatalf("first setup failed: %v", err)
	}

	second, err := p.Setup(job1, job2, fwd)
	if err != nil {
		t.Fatalf("second setup failed: %v", err)
	}

	authorized := job2.Lines("~/.ssh/authorized_keys")
	if len(authorized) != 2 {
		t.Fatalf("expected two authorized_keys lines, got %d", len(authorized))
	}
	if authorized[0] != first.AuthorizedKey || authorized[1] != second.AuthorizedKey {
		t.Error("authorized_keys lines do not match the two generated keys")
	}

	script := job1.Lines("~/create_ssh_tunnel.sh")
	if n := countLinesContaining(script, "-L 47827:localhost:47827"); n != 2 {
		t.Errorf("expected two ssh lines in the script, got %d", n)
	}
	if n := countLinesContaining(script, "#!/bin/bash"); n != 2 {
		t.Errorf("expected two shebang lines in the script, got %d", n)
	}
}

func TestSetup_RemoteCommandFailure(t *testing.T) {
	p := newTestProvisioner(t)
	job1 := sshtest.NewSession("user1", "10.0.0.1", 22)
	job2 := sshtest.NewSession("user2", "10.0.0.2", 22)
	job2.FailOn = "authorized_keys"

	_, err := p.Setup(job1, job2, defaultForwarding(t))

	if !errors.Is(err, ErrRemoteCommandFailed) {
		t.Fatalf("expected ErrRemoteCommandFailed, got %v", err)
	}
	if _, ok := job1.Files["~/create_ssh_tunnel.sh"]; ok {
		t.Error("script must not be written when authorizing the key failed")
	}
}

func TestRenderScript(t *testing.T) {
	target := sshtest.NewSession("rescale", "203.0.113.7", 2222).Target()
	fwd := PortForwarding{LocalPort: 8080, RemoteHost: "127.0.0.1", RemotePort: 80}

	script, err := RenderScript(target, "tunnel_maker_private_key.pem", fwd)

	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	expected := "#!/bin/bash\nssh -p 2222 -i ~/tunnel_maker_private_key.pem rescale@203.0.113.7 -L 8080:127.0.0.1:80 -N -v"

	if script != expected {
		t.Errorf("expected %q, got %q", expected, script)
	}
}

func TestParsePortForwarding(t *testing.T) {
	fwd, err := ParsePortForwarding("47827:localhost:47827")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fwd.LocalPort != 47827 || fwd.RemoteHost != "localhost" || fwd.RemotePort != 47827 {
		t.Errorf("unexpected forwarding %+v", fwd)
	}

	for _, bad := range []string{"", "47827", "47827:localhost", "0:localhost:1", "1:localhost:70000", "a:localhost:1", "1::2", "1:local host:2"} {
		if _, err := ParsePortForwarding(bad); !errors.Is(err, ErrInvalidPortForwarding) {
			t.Errorf("%q: expected ErrInvalidPortForwarding, got %v", bad, err)
		}
	}
}
