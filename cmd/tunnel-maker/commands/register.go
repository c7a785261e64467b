package commands

import (
	"tunnelmaker/cmd/tunnel-maker/config"
	"tunnelmaker/internal/commands"
	"tunnelmaker/internal/logger"

	"github.com/spf13/cobra"
)

var (
	log             *logger.Logger
	commandsService *commands.Service
)

func RegisterCommands(rootCmd *cobra.Command, l *logger.Logger) {
	log = l
	commandsService = commands.NewService(config.Config.HTTPTimeout, config.Config.KeyBits, log)

	registerTunnelFlags(rootCmd)
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = runTunnel
}
