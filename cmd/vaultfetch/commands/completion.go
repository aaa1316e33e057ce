package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/vaultfetch/internal/sink/console"
)

// formatChoices are offered for --format, each with a short description
var formatChoices = []string{
	string(console.FormatRaw) + "\tthe password only",
	string(console.FormatDotenv) + "\tNAME=\"value\" line for a .env file",
	string(console.FormatJSON) + "\tobject keyed by the output variable",
}

// RegisterRootCompletions narrows shell completion of the global file flags
// to the extensions they read or write. The completion command itself is the
// one cobra adds to every root with subcommands.
func RegisterRootCompletions(root *cobra.Command) {
	_ = root.MarkPersistentFlagFilename("config", "yaml", "yml")
	_ = root.MarkPersistentFlagFilename("env-file", "env")
	_ = root.MarkPersistentFlagFilename("metrics-file", "prom")
}

func registerGetCompletions(cmd *cobra.Command) {
	_ = cmd.MarkFlagFilename("ca-file", "pem", "crt")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormat)
}

func completeFormat(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return formatChoices, cobra.ShellCompDirectiveNoFileComp
}
