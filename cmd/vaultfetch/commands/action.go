package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/systmms/vaultfetch/internal/config"
	"github.com/systmms/vaultfetch/internal/sink/githubactions"
)

// NewActionCommand creates the entry point used as a CI job step.
func NewActionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Run as a GitHub Actions step",
		Long: `Read the step inputs from INPUT_* variables, fetch the password and
export it to later steps.

The password is masked in the job log, written to $GITHUB_ENV under the
output_variable input and set as the step output "password". Any failure
marks the step failed with a single error line and exports nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := githubactions.New(cmd.OutOrStdout())

			if err := runAction(cmd, cfg, runner); err != nil {
				runner.Fail(err.Error())
				return reportedError{err: err}
			}
			return nil
		},
	}

	return cmd
}

// reportedError is a failure the command already showed to the user
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown, so the caller should only
// set the exit status.
func IsReported(err error) bool {
	var reported reportedError
	return errors.As(err, &reported)
}

func runAction(cmd *cobra.Command, cfg *config.Config, runner *githubactions.Sink) error {
	in, err := config.NewInputs()
	if err != nil {
		return err
	}
	if err := in.LoadEnv(config.ActionEnvPrefix, nil); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if err := runner.Mask(in.AppSecret); err != nil {
		return err
	}

	return retrieval{
		cfg:    cfg,
		inputs: in,
		diag:   runner,
		sink:   runner,
	}.run(cmd.Context())
}
