package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InfoResult summarizes the remote database and the transfer it took to
// inspect it.
type InfoResult struct {
	URL        string `json:"url"`
	SizeBytes  int64  `json:"size_bytes"`
	Buildings  int64  `json:"buildings"`
	Architects int64  `json:"architects"`

	PagesCached int   `json:"pages_cached"`
	Fetches     int64 `json:"fetches"`
	Fallback    bool  `json:"fallback"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show remote database size and record counts",
		Long: `Show the remote database size, record counts, and how much of the file
was actually transferred to answer.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, cmd)
		},
	}
	return cmd
}

func runInfo(opts *RootOptions, cmd *cobra.Command) error {
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

	ctx := cmd.Context()

	size, err := env.store.Size(ctx)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}

	buildings, err := env.countTable(ctx, "architecture")
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}
	architects, err := env.countTable(ctx, "architect")
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}

	stats := env.store.Stats()
	result := InfoResult{
		URL:         env.cfg.URL,
		SizeBytes:   size,
		Buildings:   buildings,
		Architects:  architects,
		PagesCached: stats.PagesCached,
		Fetches:     stats.Fetches,
		Fallback:    stats.Fallback,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "url:         %s\n", result.URL)
	fmt.Fprintf(formatter.Writer, "size:        %d bytes\n", result.SizeBytes)
	fmt.Fprintf(formatter.Writer, "buildings:   %d\n", result.Buildings)
	fmt.Fprintf(formatter.Writer, "architects:  %d\n", result.Architects)
	fmt.Fprintf(formatter.Writer, "fetched:     %d range request(s), %d page(s) cached\n",
		result.Fetches, result.PagesCached)
	if result.Fallback {
		fmt.Fprintln(formatter.Writer, "note:        server ignored range requests; whole file was downloaded")
	}
	return nil
}
