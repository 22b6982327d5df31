package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
)

// StatsOptions holds flags for the stats commands.
type StatsOptions struct {
	*RootOptions
	Archive bool
	From    string
	To      string
	Field   string
}

// NewStatsCommand creates the stats command and its aggregate subcommand.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the granule summary",
		Long: `Print the granule summary: error count, collection count,
average processing time and granule count over a time window.

Example:
  metasearch stats --from 2024-01-01T00:00:00Z --to 2024-02-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.Archive, "archive", false, "query the snapshot backend")
	cmd.Flags().StringVar(&opts.From, "from", "", "window start (RFC 3339 or epoch ms)")
	cmd.Flags().StringVar(&opts.To, "to", "", "window end (RFC 3339 or epoch ms)")

	agg := &cobra.Command{
		Use:   "aggregate <type> [key=value ...]",
		Short: "Count records grouped by a field",
		Long: `Count records grouped by a field.

Example:
  metasearch stats aggregate granule --field status collectionId=MOD09GQ___006`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	agg.Flags().StringVar(&opts.Field, "field", "status", "field to group by")
	cmd.AddCommand(agg)

	return cmd
}

func runSummary(ctx context.Context, opts *StatsOptions, out io.Writer) error {
	from, err := parseTimeFlag("from", opts.From)
	if err != nil {
		return err
	}
	to, err := parseTimeFlag("to", opts.To)
	if err != nil {
		return err
	}

	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := a.stats.Summary(ctx, backendFlag(opts.Archive), from, to)
	if err != nil {
		return err
	}
	return writeJSON(out, summary)
}

func runAggregate(ctx context.Context, opts *StatsOptions, args []string, out io.Writer) error {
	entity, err := domain.ParseEntity(args[0])
	if err != nil {
		return err
	}
	values, err := parseKV(args[1:])
	if err != nil {
		return err
	}

	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := dsl.Parse(entity, values, parseOptions(cfg.Search))
	if err != nil {
		return fmt.Errorf("parse %s filters: %w", entity, err)
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.stats.Aggregate(ctx, backendFlag(opts.Archive), entity, p, opts.Field)
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}

// parseTimeFlag accepts RFC 3339 or epoch milliseconds. Empty gives the zero time.
func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, domain.NewFieldError(name, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err))
	}
	return t.UTC(), nil
}
