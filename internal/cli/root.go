// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/config"
	"github.com/uncaged-coder/vcardtools/internal/logging"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

var (
	// Global flags
	configPath string
	logLevel   string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	cfgErr             error
	logger             = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vcardtools",
	Short: "Merge and deduplicate vCard address books",
	Long: `vcardtools keeps address books as one vCard file per contact.

Export a book into a single aggregate file for your phone, import the file the
phone sends back, and vcardtools merges duplicates, names each contact file and
commits the result to git.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel)
		if err != nil {
			return err
		}
		logger = l

		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "init", "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		// A broken config is reported by the commands that need it, so
		// --json callers still get an envelope.
		cfg, resolvedConfigPath, cfgErr = loadGlobalConfigWithPath()
		if cfgErr != nil {
			logger.Debug("failed to load config", zap.Error(cfgErr))
			cfg = &config.Config{}
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		logger.Debug("loaded config", zap.String("path", resolvedConfigPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "Log level written to stderr: debug, info, warn, error")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return nil, resolvedPath, fmt.Errorf("failed to load config: %w", statErr)
		}
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, resolvedPath, err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}
