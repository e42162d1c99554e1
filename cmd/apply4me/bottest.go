package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/browser"
)

const botTestURL = "https://bot.sannysoft.com"

var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Open " + botTestURL + " with the stealth browser options to audit the fingerprint.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := component("cli")
		log.Infof("Opening %s with stealth browser options...", botTestURL)

		// non-headless so you can see it
		page, err := browser.Launch(cmd.Context(), browser.LaunchOptions{
			UserAgent:    cfg.Browser.UserAgent,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
		})
		if err != nil {
			return err
		}
		defer page.Close()

		if err := page.Navigate(cmd.Context(), botTestURL, cfg.Timeouts.Navigation.Std()); err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to close the browser...")
		bufio.NewReader(os.Stdin).ReadString('\n')

		log.Info("Done.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botTestCmd)
}
