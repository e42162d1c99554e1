package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/app"
	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/notifier"
	"github.com/ibeckermayer/apply4me/internal/store"
)

var (
	runContinue bool
	runHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one application session now.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("continue") {
			cfg.Apply.ContinueApplying = runContinue
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = runHeadless
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

		result, err := a.Run(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d, failed %d\n", result.Submitted(), result.Failed())
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runContinue, "continue", false, "keep applying while the site offers more listings")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a window")
	rootCmd.AddCommand(runCmd)
}

// newApp wires the application session with its history store and notifier.
func newApp(c *config.Config) (*app.App, func(), error) {
	st, err := store.New(c.StorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			component("store").WithError(err).Warn("Failed to close history")
		}
	}

	n, err := notifier.NewFromConfig(c.Email)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	a, err := app.New(c, app.ChromeLauncher(c.Browser), st, n, component("app"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

// runOnce is the scheduled job body.
func runOnce(a *app.App) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		// Pick up edits made since the scheduler started
		if c, err := loadConfig(configPath); err != nil {
			component("scheduler").WithError(err).Warn("Could not reload config, keeping the previous one")
		} else if err := a.Reload(c); err != nil {
			component("scheduler").WithError(err).Warn("Could not apply reloaded config")
		}
		_, err := a.Run(ctx)
		return err
	}
}
