package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tunnelmaker/cmd/tunnel-maker/commands"
	"tunnelmaker/cmd/tunnel-maker/config"
	"tunnelmaker/internal/logger"
	"tunnelmaker/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunnel-maker --job1 JobID --job2 JobID",
	Short: "Create an SSH tunnel between two Rescale jobs or workstations",
	Long: `tunnel-maker facilitates the creation of an SSH tunnel between Rescale jobs or workstations.

It creates a temporary SSH keypair, uploads the temporary private key to Rescale job 1
(defined using --job1) and adds the temporary public key to ~/.ssh/authorized_keys on Rescale job 2
(defined using --job2).

It then creates a shell script called ~/create_ssh_tunnel.sh on job 1, that can be used to
create an SSH tunnel from job 1 to job 2.

The Rescale API key is read from the environment variable RESCALE_API_US_PROD or RESCALE_API_KEY
(a .env file in the working directory is honoured), otherwise from the API profiles configuration
file shared with the Rescale CLI.`,
	Version:       fmt.Sprintf("%s (commit: %s, date: %s, arch: %s, os: %s)", version.Version, version.Commit, version.Date, version.Arch, version.OS),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log := logger.New(os.Stderr, config.LoggerName)

	commands.RegisterCommands(rootCmd, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
