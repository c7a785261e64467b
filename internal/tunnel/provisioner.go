package tunnel

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tunnelmaker/internal/keypair"
	"tunnelmaker/internal/logger"
	"tunnelmaker/internal/ssh"
	"tunnelmaker/internal/templates"

	"github.com/aymerick/raymond"
	"github.com/kballard/go-shellquote"
)

const (
	ScriptName         = "create_ssh_tunnel.sh"
	ScriptMode         = "775"
	AuthorizedKeysPath = "~/.ssh/authorized_keys"
)

// Provisioner wires a source host to a target host with a throwaway key.
type Provisioner struct {
	Logger  *logger.Logger
	KeyBits int
	// TempDir is the parent of the per-run key directory; empty means os.TempDir.
	TempDir string
}

func NewProvisioner(keyBits int, log *logger.Logger) *Provisioner {
	return &Provisioner{Logger: log, KeyBits: keyBits}
}

type Result struct {
	AuthorizedKey        string
	PrivateKeyRemotePath string
	ScriptPath           string
	Script               string
}

// Setup uploads a fresh private key to source, authorizes its public half
// on target and appends ~/create_ssh_tunnel.sh on source. Nothing is
// deduplicated: every call appends again.
func (p *Provisioner) Setup(source ssh.Session, target ssh.Session, forwarding PortForwarding) (*Result, error) {
	sourceHost := source.Target().Host
	targetHost := target.Target().Host

	authorizedKey, keyName, remotePath, err := p.distributePrivateKey(source)

	if err != nil {
		return nil, err
	}

	p.Logger.Info("Appending public key to %s on %s", AuthorizedKeysPath, targetHost)

	err = runChecked(target, fmt.Sprintf("mkdir -p ~/.ssh && echo %s >> %s", shellquote.Join(authorizedKey), AuthorizedKeysPath))

	if err != nil {
		return nil, err
	}

	script, err := RenderScript(target.Target(), keyName, forwarding)

	if err != nil {
		return nil, err
	}

	p.Logger.Info("Creating script %s on %s", ScriptName, sourceHost)

	if err := runChecked(source, fmt.Sprintf("echo %s >> ~/%s", shellquote.Join(script), ScriptName)); err != nil {
		return nil, err
	}

	if err := runChecked(source, fmt.Sprintf("chmod %s ~/%s", ScriptMode, ScriptName)); err != nil {
		return nil, err
	}

	return &Result{
		AuthorizedKey:        authorizedKey,
		PrivateKeyRemotePath: remotePath,
		ScriptPath:           "~/" + ScriptName,
		Script:               script,
	}, nil
}

// distributePrivateKey keeps the key material on local disk only until
// the upload to source is done.
func (p *Provisioner) distributePrivateKey(source ssh.Session) (string, string, string, error) {
	dir, err := os.MkdirTemp(p.TempDir, "tunnel-maker-")

	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrFailedToCreateTempDir, err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.Logger.Warn("Failed to remove temporary directory %s: %v", dir, err)
		} else {
			p.Logger.Debug("Removed temporary directory %s", dir)
		}
	}()

	p.Logger.Info("Created temporary directory: %s", dir)

	kp, err := keypair.Generate(dir, p.KeyBits, p.Logger)

	if err != nil {
		return "", "", "", err
	}

	p.Logger.Info("Uploading private key to %s", source.Target().Host)

	remotePath, err := source.Upload(kp.PrivateKeyPath)

	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrFailedToUploadKey, err)
	}

	p.Logger.Info("Uploaded %s to %s on %s", kp.PrivateKeyPath, remotePath, source.Target().Host)

	return kp.AuthorizedKey, filepath.Base(kp.PrivateKeyPath), remotePath, nil
}

// RenderScript produces the tunnel script for reaching target with the
// uploaded key keyName.
func RenderScript(target *ssh.Credentials, keyName string, forwarding PortForwarding) (string, error) {
	tplSource, err := templates.Scripts.ReadFile(templates.CreateSSHTunnelScriptTemplatePath)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToRenderScript, err)
	}

	tpl, err := raymond.Parse(string(tplSource))

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToRenderScript, err)
	}

	script, err := tpl.Exec(map[string]string{
		"port":                strconv.FormatUint(uint64(target.Port), 10),
		"privateKeyName":      keyName,
		"username":            target.Username,
		"host":                target.Host,
		"localPortForwarding": forwarding.String(),
	})

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToRenderScript, err)
	}

	return strings.TrimSpace(script), nil
}

func runChecked(session ssh.Session, command string) error {
	result, err := session.Run(command)

	if err != nil {
		return fmt.Errorf("%w on %s: %v", ErrRemoteCommandFailed, session.Target().Host, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("%w on %s: exit code %d: %s", ErrRemoteCommandFailed, session.Target().Host, result.ExitCode, result.Stderr)
	}

	return nil
}
