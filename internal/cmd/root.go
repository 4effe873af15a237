package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerissecure/cellfind"
	"github.com/aerissecure/cellfind/convert"
	"github.com/aerissecure/cellfind/internal/config"
	"github.com/aerissecure/cellfind/internal/logger"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for cellfind
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cellfind",
		Short: "Find text across a folder of spreadsheets and jump to the cell",
		Long: `cellfind searches every workbook directly inside a folder (.xlsx, .xlsm,
.xls, .xlsb) for cells containing a keyword, then opens a chosen match with
that cell selected and scrolled into view.

Legacy .xls and .xlsb workbooks are converted to .xlsx in a cache directory
before navigation; cellfind always asks before writing a converted copy.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: $CELLFIND_CONFIG or .cellfind.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("cache-dir", "", "Directory for converted copies of legacy workbooks")
	cmd.PersistentFlags().Int("max-concurrency", -1, "Workbooks scanned at once (0 = 2 x CPUs, -1 = use config)")
	cmd.PersistentFlags().Bool("header-row", true, "Treat the first row of each sheet as a header that is not searched")
	cmd.PersistentFlags().Bool("stale-check", false, "Re-convert legacy workbooks that changed since their last conversion")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to every conversion prompt")

	cmd.AddCommand(NewSearchCommand())
	cmd.AddCommand(NewOpenCommand())
	cmd.AddCommand(NewConvertCommand())
	cmd.AddCommand(NewCacheCommand())
	cmd.AddCommand(NewPreviewCommand())
	cmd.AddCommand(NewPickCommand())
	cmd.AddCommand(NewMCPCommand())

	return cmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg, err := config.LoadConfig(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("max-concurrency") {
		cfg.MaxConcurrency, _ = flags.GetInt("max-concurrency")
	}
	if flags.Changed("header-row") {
		cfg.HeaderRow, _ = flags.GetBool("header-row")
	}
	if flags.Changed("stale-check") {
		cfg.StaleCheck, _ = flags.GetBool("stale-check")
	}
	if flags.Changed("yes") {
		cfg.AssumeYes, _ = flags.GetBool("yes")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr so stdout stays clean for reports and MCP.
func newLogger(cmd *cobra.Command, cfg *config.Config) logger.Logger {
	return logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
}

// confirmer returns the prompt source for conversions.
func confirmer(cmd *cobra.Command, cfg *config.Config) convert.Confirmer {
	if cfg.AssumeYes {
		return convert.Always(true)
	}
	return NewTerminalConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// newApp loads configuration and wires every component.
func newApp(cmd *cobra.Command) (*cellfind.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cellfind.New(cfg, confirmer(cmd, cfg), newLogger(cmd, cfg)), nil
}
