package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/machiya/archidb/internal/facet"
)

// NewDistinctCommand creates the distinct command.
func NewDistinctCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distinct <dimension>",
		Short: "Enumerate the values of a facet dimension",
		Long: `Enumerate the distinct values of a facet dimension, for populating
filter options. Known dimensions: prefecture, category, nationality,
school, tag.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistinct(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDistinct(opts *RootOptions, dimension string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	env, err := openEnv(opts, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer env.Close()

	values, err := env.svc.DistinctValues(cmd.Context(), dimension)
	if err != nil {
		if errors.Is(err, facet.ErrUnknownDimension) {
			_ = formatter.Error(ErrCodeDimension, err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown dimension", err)
		}
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"dimension": dimension,
			"values":    values,
		})
	}

	for _, v := range values {
		fmt.Fprintln(formatter.Writer, v)
	}
	return nil
}
