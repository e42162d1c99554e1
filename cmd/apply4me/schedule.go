package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/scheduler"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run application sessions on the configured cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateSchedule(); err != nil {
			return err
		}
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cleanup, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		s, err := scheduler.New(cfg.Schedule.Timezone, cfg.Timeouts.Run.Std(), component("scheduler"))
		if err != nil {
			return err
		}
		job := runOnce(a)
		if err := s.AddApplyJob(cfg.Schedule.Cron, job); err != nil {
			return err
		}

		if scheduleNow {
			s.RunNow(ctx, scheduler.ApplyJobName, job)
		}

		s.Start()
		if next, ok := s.NextRun(scheduler.ApplyJobName); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Next session: %s\n", formatNext(next, s.Location()))
		}
		s.Run(ctx)
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "also run a session immediately")
	rootCmd.AddCommand(scheduleCmd)
}

func formatNext(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "not scheduled"
	}
	return t.In(loc).Format("Mon Jan 2 15:04 MST")
}
