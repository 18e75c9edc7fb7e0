package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/machiya/archidb/internal/facet"
	"github.com/machiya/archidb/internal/record"
)

// ArchitectsOptions holds flags for the architects command.
type ArchitectsOptions struct {
	*RootOptions

	Query       string
	Nationality string
	School      string
	Page        int
	PageSize    int
}

// NewArchitectsCommand creates the architects command.
func NewArchitectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchitectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "architects",
		Short: "Search architect records",
		Example: `  archidb architects --url https://example.org/data.db --query Tanaka
  archidb architects --config archidb.yaml --nationality Japan`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchitects(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "substring match on the name")
	cmd.Flags().StringVar(&opts.Nationality, "nationality", "", "exact nationality")
	cmd.Flags().StringVar(&opts.School, "school", "", "exact school")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", facet.DefaultPageSize, "records per page")

	return cmd
}

func runArchitects(opts *ArchitectsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer env.Close()

	res, err := env.svc.SearchArchitects(cmd.Context(), facet.ArchitectFilterState{
		Query:       opts.Query,
		Nationality: opts.Nationality,
		School:      opts.School,
		Page:        opts.Page,
		PageSize:    opts.PageSize,
	})
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}

	fmt.Fprintf(formatter.Writer, "%d result(s), page %d/%d\n", res.Total, res.Page, res.TotalPages)
	for _, a := range res.Items {
		fmt.Fprintln(formatter.Writer, architectLine(a))
	}
	return nil
}

func architectLine(a record.Architect) string {
	born := "----"
	if a.BirthYear != nil {
		born = strconv.FormatInt(*a.BirthYear, 10)
	}
	return fmt.Sprintf("%6d  %s  (%s, b. %s)", a.ID, a.Name, a.Nationality, born)
}
