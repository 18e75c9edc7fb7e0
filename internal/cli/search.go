package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/machiya/archidb/internal/facet"
	"github.com/machiya/archidb/internal/record"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions

	Query      string
	Category   string
	Prefecture string
	YearFrom   int
	YearTo     int
	Tags       []string
	Bounds     string
	Sort       string
	Order      string
	Page       int
	PageSize   int
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search building records",
		Long: `Search building records with faceted filters.

Tags accept compound tokens: a year-qualified token like AwardX2014 matches
that exact edition, a bare name like AwardX matches every edition.

Example:
  archidb search --url https://example.org/data.db --category museum
  archidb search --config archidb.yaml --tag AwardX2014 --prefecture Mie
  archidb search --url https://example.org/data.db --bounds 34.0,35.0,135.0,137.0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "free-text match on title, architect, address")
	cmd.Flags().StringVar(&opts.Category, "category", "", "exact category")
	cmd.Flags().StringVar(&opts.Prefecture, "prefecture", "", "exact prefecture")
	cmd.Flags().IntVar(&opts.YearFrom, "year-from", 0, "earliest completion year")
	cmd.Flags().IntVar(&opts.YearTo, "year-to", 0, "latest completion year")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "tag token, repeatable (tokens OR together)")
	cmd.Flags().StringVar(&opts.Bounds, "bounds", "", "geographic box as minLat,maxLat,minLng,maxLng")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort column (id|year|title|prefecture|category)")
	cmd.Flags().StringVar(&opts.Order, "order", "", "sort direction (asc|desc)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", facet.DefaultPageSize, "records per page")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	fs := facet.FilterState{
		Query:      opts.Query,
		Category:   opts.Category,
		Prefecture: opts.Prefecture,
		YearFrom:   opts.YearFrom,
		YearTo:     opts.YearTo,
		Tags:       opts.Tags,
		Sort:       opts.Sort,
		Order:      facet.SortOrder(opts.Order),
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	}

	if opts.Bounds != "" {
		bounds, err := parseBounds(opts.Bounds)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --bounds", err)
		}
		fs.GeoBounds = bounds
	}

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer env.Close()

	res, err := env.svc.Search(cmd.Context(), fs)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return queryExitError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}

	fmt.Fprintf(formatter.Writer, "%d result(s), page %d/%d\n", res.Total, res.Page, res.TotalPages)
	for _, b := range res.Items {
		fmt.Fprintln(formatter.Writer, buildingLine(b))
	}
	return nil
}

// parseBounds parses "minLat,maxLat,minLng,maxLng".
func parseBounds(s string) (*facet.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds %q: want 4 comma-separated numbers", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bounds %q: %w", s, err)
		}
		vals[i] = v
	}
	return &facet.Bounds{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}, nil
}

func buildingLine(b record.Building) string {
	year := "----"
	if b.Year != nil {
		year = strconv.FormatInt(*b.Year, 10)
	}
	return fmt.Sprintf("%6d  %s  %s  (%s, %s, %s)",
		b.ID, year, b.Title, b.Architect, b.Prefecture, b.Category)
}
