package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is the path to a YAML configuration file. Mutually exclusive
	// with URL.
	Config string

	// URL points straight at a remote database file, bypassing the config
	// file for one-off queries.
	URL string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the archidb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "archidb",
		Short: "Query a remote architecture database without downloading it",
		Long: `archidb runs read-only queries against a remote SQLite database file,
fetching only the byte ranges the query actually touches.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Config != "" && opts.URL != "" {
				return fmt.Errorf("--config and --url are mutually exclusive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.URL, "url", "", "remote database URL (overrides config)")

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewArchitectsCommand(opts))
	cmd.AddCommand(NewDistinctCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
