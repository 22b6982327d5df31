package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/config"
	logpkg "github.com/kailas-cloud/metasearch/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Env        string
	ConfigPath string
}

// NewRootCommand creates the root command for the metasearch CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "metasearch",
		Short: "Search Cumulus metadata on the live store or archived snapshots",
		Long: `metasearch compiles query-string filters into SQL and runs them against
the live Postgres store or DuckDB over parquet snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Env, "env", config.GetEnv(), "environment name (selects config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "explicit config file path")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// load reads the configuration and builds the logger.
func (o *RootOptions) load() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load(o.Env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(logpkg.Options{Env: o.Env, Level: cfg.Logging.Level, Stack: cfg.Search.Stack})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
