package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/scheduler"
	"github.com/sentinel-ops/sentinel/pkg/core/services"
)

// JobsCmd creates the jobs command group
func JobsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run the escalation scheduler or trigger checkpoints by hand",
	}

	cmd.AddCommand(jobsRunCmd(app))
	cmd.AddCommand(jobsTriggerCmd(app))

	return cmd
}

func jobsRunCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the escalation scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job := func(ctx context.Context, checkpoint services.Checkpoint, fireAt time.Time) error {
				opDate := app.Clock.DateAt(fireAt)
				return services.RunLockupEscalation(ctx, app.Database, app.Sink, app.Logger, opDate, checkpoint)
			}

			sched := scheduler.New(app.Location, job, app.Logger)
			for _, cp := range app.Cfg.Checkpoints {
				checkpoint := services.Checkpoint{Name: cp.Name, Severity: cp.Severity}
				if err := sched.AddCheckpoint(checkpoint, cp.RRule); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Escalation scheduler running with %d checkpoints. Ctrl-C to stop.\n",
				len(app.Cfg.Checkpoints))

			err := sched.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func jobsTriggerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <checkpoint_name>",
		Short: "Run one configured checkpoint immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, cp := range app.Cfg.Checkpoints {
				if cp.Name != args[0] {
					continue
				}

				checkpoint := services.Checkpoint{Name: cp.Name, Severity: cp.Severity}
				opDate := app.Clock.Today()
				if err := services.RunLockupEscalation(app.Ctx, app.Database, app.Sink, app.Logger, opDate, checkpoint); err != nil {
					return err
				}

				fmt.Printf("\nCheckpoint %s evaluated for %s.\n", cp.Name, opDate)
				return nil
			}
			return fmt.Errorf("checkpoint %q not found in config", args[0])
		},
	}
}
