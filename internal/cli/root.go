package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/guiyumin/igget/internal/core/logging"
	"github.com/guiyumin/igget/internal/core/version"
	"github.com/spf13/cobra"
)

var (
	langFlag    string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "igget",
	Short:         "Resolve Instagram posts into downloadable media",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "message language (en, vi)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log every strategy attempt")
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	}
	return err
}

// loadConfig loads the config, applies global flags, and sets up logging
func loadConfig() (*config.Config, error) {
	cfg := config.LoadOrDefault()
	if langFlag != "" {
		cfg.Language = strings.ToLower(langFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.SlogLevel()
	if verboseFlag {
		level = slog.LevelDebug
	} else if level < slog.LevelWarn {
		// keep terminal output clean unless asked
		level = slog.LevelWarn
	}
	logging.Init(os.Stderr, level, cfg.LogFormat)
	return cfg, nil
}

func warnMissingConfig(lang string) {
	if config.Exists() {
		return
	}
	t := i18n.T(lang)
	fmt.Fprintln(os.Stderr, color.YellowString("%s. %s", t.Errors.ConfigNotFound, t.Server.RunInitHint))
}
