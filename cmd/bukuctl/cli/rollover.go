package cli

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/app"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/jobs"
)

func newRolloverCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Close the current period and open the next one",
		Long: `rollover archives the post-closing trial balance, carries it forward as
the opening balances of the next month and saves the result. The period
must already hold closing entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Engine.Rollover(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Engine.Save(cmd.Context(), svc.Repository); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "closed %s, opened %s with %d opening balances\n",
				res.Closed.Label, res.Next.Label, len(svc.Engine.Journal(journals.SourceOpening)))
			return nil
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Re-derive every report from the store and list data-quality warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			period := svc.Engine.Period().Label
			if enqueue {
				if opts.cfg.RedisAddr == "" {
					return fmt.Errorf("--enqueue needs REDIS_ADDR")
				}
				client := jobs.NewClient(asynq.RedisClientOpt{Addr: opts.cfg.RedisAddr})
				defer client.Close()
				info, err := client.EnqueueIntegrityCheck(cmd.Context(), period)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "enqueued %s (%s)\n", info.Type, info.ID)
				return nil
			}
			job := &jobs.IntegrityJob{
				Repository: svc.Repository,
				NewEngine: func() (*ledger.Engine, error) {
					return app.NewEngine(opts.cfg, slog.Default(), nil, nil)
				},
				Logger: slog.Default(),
			}
			report, err := job.Check(cmd.Context(), period)
			if err != nil {
				return err
			}
			if len(report.Warnings) == 0 {
				fmt.Fprintf(out, "%s: no warnings\n", report.Period)
				return nil
			}
			writeWarnings(out, report.Warnings)
			return fmt.Errorf("%s: %d data-quality warnings", report.Period, len(report.Warnings))
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the check to the background worker instead")
	return cmd
}
