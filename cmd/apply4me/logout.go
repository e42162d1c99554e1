package main

import (
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/auth"
	"github.com/ibeckermayer/apply4me/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved site session so the next run logs in again.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logout(cfg); err != nil {
			return err
		}
		component("cli").Info("Saved session cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func logout(c *config.Config) error {
	cookies := auth.NewCookieStore(c.CookiePath())
	return auth.NewManager(auth.Credentials{}, auth.Options{}, cookies, component("auth")).Logout()
}
