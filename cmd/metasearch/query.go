package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Archive bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity> [key=value ...]",
		Short: "Run one search and print the JSON response",
		Long: `Run one search and print the JSON response.

Filters use the HTTP query-string grammar.

Example:
  metasearch query granules status=completed collectionId=MOD09GQ___006 limit=5
  metasearch query executions status__in=failed,running --archive`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "search the snapshot backend")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, args []string, out io.Writer) error {
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
		return fmt.Errorf("parse %s query: %w", entity, err)
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.search.Search(ctx, entity, backendFlag(opts.Archive), p)
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}

// parseKV turns key=value arguments into query values. Repeated keys accumulate.
func parseKV(args []string) (url.Values, error) {
	values := url.Values{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", domain.ErrInvalidParameter, arg)
		}
		values.Add(k, v)
	}
	return values, nil
}

func backendFlag(archive bool) db.Backend {
	if archive {
		return db.BackendSnapshot
	}
	return db.BackendLive
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
