package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/config"
)

var openCmd = &cobra.Command{
	Use:       "open <config|artifacts>",
	Short:     "Open the config file or the debug artifact directory.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "artifacts"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := openTarget(args[0], configPath, cfg)
		if err != nil {
			return err
		}
		component("cli").Infof("Opening %s", path)
		return browser.OpenFile(path)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func openTarget(target, configFile string, c *config.Config) (string, error) {
	switch target {
	case "config":
		if configFile != "" {
			return filepath.Abs(configFile)
		}
		return config.ConfigPath(), nil
	case "artifacts":
		dir, err := filepath.Abs(c.Debug.ArtifactDir)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
		return dir, nil
	default:
		return "", fmt.Errorf("unknown target: %s", target)
	}
}
