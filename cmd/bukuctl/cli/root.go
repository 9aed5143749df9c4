// Package cli implements the bukuctl commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/bukubesar/internal/app"
)

type rootOptions struct {
	debug bool
	json  bool

	cfg *app.Config
	svc *app.Services
}

// NewRootCommand builds the bukuctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "bukuctl",
		Short: "Inspect and maintain the bukubesar ledger",
		Long: `bukuctl reads the ledger from the configured store (STORE_DRIVER)
and prints its reports, ends the period or copies the data to another store.

Example:
  bukuctl trial-balance
  bukuctl rollover
  bukuctl export --to sqlite --path backup.db`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newTrialBalanceCommand(opts),
		newIncomeStatementCommand(opts),
		newBalanceSheetCommand(opts),
		newInventoryCommand(opts),
		newRolloverCommand(opts),
		newExportCommand(opts),
		newCheckCommand(opts),
	)
	for _, c := range root.Commands() {
		if c.RunE == nil {
			continue
		}
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			defer opts.close()
			return run(cmd, args)
		}
	}
	return root
}

// close releases the store and archive opened by services.
func (o *rootOptions) close() {
	if o.svc == nil {
		return
	}
	if err := o.svc.Close(); err != nil {
		slog.Warn("close services", slog.Any("error", err))
	}
	o.svc = nil
}

// services loads configuration and restores the ledger once per invocation.
func (o *rootOptions) services(ctx context.Context) (*app.Services, error) {
	if o.svc != nil {
		return o.svc, nil
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver == app.StoreNone {
		return nil, fmt.Errorf("STORE_DRIVER is none; nothing to read")
	}
	svc, err := app.Build(ctx, cfg, slog.Default(), nil)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	o.svc = svc
	return svc, nil
}
