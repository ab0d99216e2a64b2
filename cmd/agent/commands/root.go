// Package commands defines the agent's CLI.
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/outpost-labs/outpost/internal/agent"
	"github.com/outpost-labs/outpost/internal/config"
	"github.com/outpost-labs/outpost/pkg/api/v1/client"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagAuthToken     = "auth-token"
	flagPollInterval  = "poll-interval"
)

var (
	serverAddress string
	authToken     string
	pollInterval  time.Duration
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", "", "Address of the control plane API (env: OUTPOST_SERVER_ADDRESS)")
	RootCmd.PersistentFlags().StringVarP(&authToken, flagAuthToken, "t", "", "Agent auth token (env: OUTPOST_AUTH_TOKEN)")
	RootCmd.PersistentFlags().DurationVarP(&pollInterval, flagPollInterval, "i", 0, "Idle time between poll cycles (env: OUTPOST_POLL_INTERVAL_SEC)")
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "outpost-agent",
	Short: "Outpost agent - executes fleet jobs on this host",
	Long: `Outpost agent polls the control plane for jobs, executes them locally
and reports their outcomes back.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig(cmd)

		if cfg.ServerAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}

		apiClient, err := client.NewClient(&client.Options{
			BaseURL:   cfg.ServerAddress,
			AuthToken: cfg.AuthToken,
		})
		if err != nil {
			return fmt.Errorf("creating API client: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := agent.New(apiClient, cfg)
		if err := a.Start(ctx); err != nil {
			return err
		}

		a.Run(ctx)
		return nil
	},
}

// loadConfig resolves the agent configuration with flag > env > default
// precedence.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if cmd.Flags().Changed(flagServerAddress) {
		cfg.ServerAddress = serverAddress
	}
	if cmd.Flags().Changed(flagAuthToken) {
		cfg.AuthToken = authToken
	}
	if cmd.Flags().Changed(flagPollInterval) {
		cfg.PollInterval = pollInterval
	}

	return cfg
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
