package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration; cfgErr keeps the load failure for commands that need it.
	cfg    *cfgpkg.Global
	cfgErr error

	logger   = logging.Discard()
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "tableloom",
	Short: "tableloom: exploratory dashboards over CSV and XLSX files",
	Long: `tableloom loads a tabular dataset, summarizes it, filters it by categorical
values and a numeric range, draws charts over the result and exports the
filtered rows as CSV. Use the subcommands from a terminal, or "serve" for the
interactive dashboards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tableloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text | json (overrides config)")
}

func loadConfig() {
	closeLog()
	cfg, cfgErr = nil, nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report cfgErr themselves
		cfgErr = err
		warnf(os.Stderr, "failed to load config: %v", err)
		return
	}
	cfg = c

	opt := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, SeqURL: cfg.SeqURL, Writer: os.Stderr}
	if debug {
		opt.Level = "debug"
	}
	if logFormat != "" {
		opt.Format = logFormat
	}
	l, closeFn, err := logging.Setup(opt)
	if err != nil {
		warnf(os.Stderr, "logging setup: %v", err)
		return
	}
	logger, closeLog = l, closeFn
	logger.Debug("config loaded", "file", cfgFile, "datasets", len(cfg.Datasets))
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, cfgErr
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
