package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"easyserver/internal/config"
	"easyserver/internal/slogutil"
	"easyserver/internal/version"
)

var (
	// configPathFlag is the CLI --config flag value
	configPathFlag string
	verbosity      int
	quiet          bool
)

var rootCmd = &cobra.Command{
	Use:   "easyserver",
	Short: "EasyServer - a small HTTP dispatcher",
	Long: `EasyServer routes each request to a registered handler by exact path and
method, or serves a file from a document root. Clients are tracked with a
session cookie.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("EasyServer version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "",
		"Path to a config file (default: .easyserver/config.json)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}

// mustGetBaseDir returns the working directory all relative paths hang off
func mustGetBaseDir() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// loadConfig resolves configuration.
// Precedence: --config > EASYSERVER_CONFIG_PATH > .easyserver/config.* > defaults
func loadConfig(baseDir string) (*config.LoadResult, error) {
	if configPathFlag != "" {
		return config.LoadConfigFile(configPathFlag)
	}
	return config.LoadConfigWithDetails(baseDir)
}

// cliLevel returns the log level requested on the command line, or 0
func cliLevel() slog.Level {
	if verbosity == 0 && !quiet {
		return 0
	}
	return slogutil.LevelFromVerbosity(verbosity, quiet)
}
