package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/spf13/cobra"
)

// longRunning marks commands that keep the configured log level.
const longRunning = "long-running"

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor reconciles virtual trees into minimal host updates",
	Long: `Arbor diffs successive virtual trees, partitions them into update boundaries
and delivers one batched host call per changed boundary.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to an arbor.yaml configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every pipeline event to Stderr")
	rootCmd.PersistentFlags().Int("threshold", 0, "Local depth past which implicit boundaries are created")
	rootCmd.PersistentFlags().String("flush", "", "Flush mode: 'sync' or 'deferred'")
	rootCmd.PersistentFlags().String("compare", "", "Prop comparator: 'shallow' or 'deep'")
	rootCmd.PersistentFlags().String("schema", "", "Path to a prop schema file")
}

// loadOptions reads the configuration file and applies the flags set on cmd over it.
func loadOptions(cmd *cobra.Command) (cli.Options, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cli.Options{}, err
	}

	if flags.Changed("threshold") {
		cfg.Threshold, _ = flags.GetInt("threshold")
	}
	if flags.Changed("flush") {
		s, _ := flags.GetString("flush")
		if cfg.Flush, err = scheduler.ParseFlushMode(s); err != nil {
			return cli.Options{}, err
		}
	}
	if flags.Changed("compare") {
		cfg.Compare, _ = flags.GetString("compare")
	}
	if flags.Changed("schema") {
		cfg.Schema, _ = flags.GetString("schema")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Options{}, err
	}

	level, err := cfg.Level()
	if err != nil {
		return cli.Options{}, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return cli.Options{}, err
	}
	debug, _ := flags.GetBool("debug")
	return cli.Options{
		Config: cfg,
		Debug:  debug,
		Logger: cli.CreateLogger(level, format, debug, cmd.Annotations[longRunning] == "true"),
	}, nil
}
