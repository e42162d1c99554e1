package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/config"
)

var (
	configPath string
	verbose    bool

	logger = logrus.New()
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "apply4me",
	Short:         "apply4me applies to internships on your behalf.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		var err error
		cfg, err = loadConfig(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
}

func component(name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// loadConfig reads the config file, writing the defaults on first run.
func loadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load config: %w", err)
		}
		// First run - create default config
		c = config.Default()
		if err := c.Save(path); err != nil {
			logger.WithError(err).Warn("Could not save default config")
		} else {
			if path == "" {
				path = config.ConfigPath()
			}
			logger.Infof("Created default config at: %s", path)
		}
	}

	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
