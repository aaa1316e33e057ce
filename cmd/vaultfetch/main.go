package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/systmms/vaultfetch/cmd/vaultfetch/commands"
	"github.com/systmms/vaultfetch/internal/config"
	dserrors "github.com/systmms/vaultfetch/internal/errors"
	"github.com/systmms/vaultfetch/internal/logging"
	"github.com/systmms/vaultfetch/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints a failure the command has not already shown
func reportError(w io.Writer, err error) {
	if commands.IsReported(err) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", dserrors.SimplifyError(err))
}

func run() error {
	// Global flags
	var (
		configFile  string
		envFile     string
		metricsFile string
		noColor     bool
		debug       bool
	)

	cfg := &config.Config{Version: version}

	rootCmd := &cobra.Command{
		Use:   "vaultfetch",
		Short: "Fetch a password from a vault server",
		Long: `vaultfetch logs in to a vault server with an application key and secret,
looks up a vault and an entry by name and hands the entry's password to the
caller: a CI job (vaultfetch action) or a shell (vaultfetch get).`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Path = configFile
			cfg.ConfigRequired = cmd.Flags().Changed("config")
			cfg.EnvFile = envFile
			cfg.MetricsFile = metricsFile
			cfg.Logger = logging.New(debug, noColor)

			return config.LoadDotenv(envFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "vaultfetch.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this .env file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	commands.RegisterRootCompletions(rootCmd)

	rootCmd.AddCommand(
		commands.NewGetCommand(cfg),
		commands.NewActionCommand(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
