package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/vaultfetch/internal/config"
	dserrors "github.com/systmms/vaultfetch/internal/errors"
	"github.com/systmms/vaultfetch/internal/sink/console"
)

// defaultOutputVariable names the password in dotenv and json output when
// nothing else is configured
const defaultOutputVariable = "VAULT_PASSWORD"

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		flags  inputFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a password from the vault",
		Long: `Retrieve a single entry's password and write it to stdout.

Inputs are read from vaultfetch.yaml (or --config), then VAULTFETCH_*
environment variables, then flags. Later sources win. Nothing is printed
unless every step succeeded.

Examples:
  # Print the raw password
  vaultfetch get --server-url https://vault.example.com --vault Prod --entry db

  # Emit a line for a .env file
  vaultfetch get --vault Prod --entry db --output-variable DB_PASSWORD --format dotenv

  # Use in scripts
  export DB_PASSWORD=$(vaultfetch get --vault Prod --entry db)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := console.ParseFormat(format)
			if err != nil {
				return dserrors.UserError{
					Message:    "Invalid output format",
					Details:    err.Error(),
					Suggestion: "Use --format raw, dotenv or json",
				}
			}

			in, err := config.NewInputs()
			if err != nil {
				return err
			}
			in.OutputVariable = defaultOutputVariable

			if err := in.LoadFile(cfg.Path, cfg.ConfigRequired); err != nil {
				return err
			}
			if err := in.LoadEnv(config.CLIEnvPrefix, nil); err != nil {
				return err
			}
			flags.apply(cmd, in)
			if err := in.Validate(); err != nil {
				return err
			}

			cfg.Logger.AddSecret(in.AppSecret)
			out := console.New(cfg.Logger, outputFormat)

			err = retrieval{
				cfg:    cfg,
				inputs: in,
				diag:   cfg.Logger,
				sink:   out,
			}.run(cmd.Context())
			if err != nil {
				return dserrors.VaultError(in.ServerURL, err)
			}

			return out.Flush(cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(console.FormatRaw), "Output format: raw, dotenv or json")
	registerGetCompletions(cmd)

	return cmd
}
