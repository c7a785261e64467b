package commands

import (
	"fmt"
	"time"

	"tunnelmaker/cmd/tunnel-maker/config"
	"tunnelmaker/internal/commands/types"
	"tunnelmaker/internal/logger"
	"tunnelmaker/internal/ssh"

	"github.com/spf13/cobra"
)

var (
	TunnelJob1                string
	TunnelJob2                string
	TunnelLocalPortForwarding string
	TunnelSSHPrivateKey       string
	TunnelAPIConfigFile       string
	TunnelAPIProfile          string
	TunnelAPIBaseURL          string
	TunnelSSHConnectTimeout   time.Duration
	TunnelVerbose             bool
)

func registerTunnelFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&TunnelJob1, "job1", "", "Rescale JobID of a job or workstation from which the SSH tunnel should be created, e.g. 'StGaQb'")
	flags.StringVar(&TunnelJob2, "job2", "", "Rescale JobID of a job or workstation to which the SSH tunnel should be created, e.g. 'uaHMJc'")
	flags.StringVar(&TunnelLocalPortForwarding, "local_port_forwarding", config.Config.LocalPortForwarding, "Local port forwarding configuration for the SSH tunnel (port:host:hostport)")
	flags.StringVar(&TunnelSSHPrivateKey, "rescale_ssh_private_key", "", "The SSH private key file used on Rescale. The corresponding public key must be configured in Rescale's User Profile settings (User Profile -> Job Settings)")
	flags.StringVar(&TunnelAPIConfigFile, "api_config_file", config.Config.APIConfigPath, "Path to the API profiles configuration file, shared with the Rescale CLI")
	flags.StringVar(&TunnelAPIProfile, "api_profile", config.Config.APIProfile, "Name of the API profile to read from the API profiles configuration file")
	flags.StringVar(&TunnelAPIBaseURL, "api_base_url", config.Config.APIBaseURL, "Base URL for API access")
	flags.DurationVar(&TunnelSSHConnectTimeout, "ssh_connect_timeout", config.Config.SSHConnectTimeout, "Timeout for establishing each SSH connection")
	flags.BoolVar(&TunnelVerbose, "verbose", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("job1")
	_ = cmd.MarkFlagRequired("job2")
	_ = cmd.MarkFlagFilename("rescale_ssh_private_key")
	_ = cmd.MarkFlagFilename("api_config_file")
}

func runTunnel(cmd *cobra.Command, _ []string) error {
	if TunnelVerbose {
		log.SetLevel(logger.DEBUG)
	}

	opts := &types.Options{
		Job1:                TunnelJob1,
		Job2:                TunnelJob2,
		LocalPortForwarding: TunnelLocalPortForwarding,
		SSHPrivateKey:       expandHome(TunnelSSHPrivateKey),
		SSHConnectTimeout:   TunnelSSHConnectTimeout,
		APIConfigFile:       expandHome(TunnelAPIConfigFile),
		APIProfile:          TunnelAPIProfile,
		APIBaseURL:          TunnelAPIBaseURL,
	}

	if opts.SSHPrivateKey != "" {
		passphrase, err := resolveKeyPassphrase(cmd, opts.SSHPrivateKey)
		if err != nil {
			return err
		}
		opts.SSHKeyPassphrase = passphrase
	}

	result, err := commandsService.CreateTunnel(cmd.Context(), opts)

	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s on job %s to open the tunnel to job %s.\n", result.ScriptPath, opts.Job1, opts.Job2)

	return nil
}

// resolveKeyPassphrase prompts for the passphrase of an encrypted key unless
// TUNNEL_MAKER_SSH_KEY_PASSPHRASE already provides it.
func resolveKeyPassphrase(cmd *cobra.Command, keyPath string) (string, error) {
	needsPassphrase, err := ssh.NeedsPassphrase(keyPath)

	if err != nil {
		return "", err
	}

	if !needsPassphrase {
		return "", nil
	}

	if passphrase := config.GetEnv("TUNNEL_MAKER_SSH_KEY_PASSPHRASE", ""); passphrase != "" {
		return passphrase, nil
	}

	passphrase, err := readPasswordSecurely(fmt.Sprintf("Enter passphrase for %s: ", keyPath), cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read SSH key passphrase: %v", err)
	}

	return passphrase, nil
}
