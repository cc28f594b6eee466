package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillforge/skillet/pkg/logger"
	"github.com/skillforge/skillet/pkg/presenter"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLET")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillet")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "CLI toolkit for agent skills",
	Long: `Skillet is the CLI toolkit behind this repository's agent skills:
tweet fetching and archival, image generation, Trello boards, Fly.io log
capture and session transcript search.

On success, commands print machine-parseable JSON to stdout; errors go to
stderr with a non-zero exit code.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// Stdout is reserved for command output, so config complaints go
		// through the logger (stderr)
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("Invalid log level, using default")
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().String("cache-root", "", "Cache directory (default ~/.skillet/cache)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("cache_root", rootCmd.PersistentFlags().Lookup("cache-root"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}

// cacheRoot resolves the cache directory from config, defaulting to
// ~/.skillet/cache
func cacheRoot() (string, error) {
	if root := viper.GetString("cache_root"); root != "" {
		return root, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillet", "cache"), nil
}
