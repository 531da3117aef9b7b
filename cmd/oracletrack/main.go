// Package main provides the oracletrack binary entry point.
// Oracletrack scans DefiLlama-style protocol data files for oracle
// metadata and reports semantic changes against the previous snapshot.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/oracletrack/config"
	"github.com/c360studio/oracletrack/report"
	"github.com/c360studio/oracletrack/tracker"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "oracletrack"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags are the flag values shared by the run, dump and watch
// commands. They are merged over the loaded config, flags last.
type rootFlags struct {
	configPath string
	repoPath   string
	snapshot   string
	out        string
	revision   string
	dryRun     bool
	collisions bool
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Oracle metadata change tracker",
		Long: `Oracletrack extracts protocol oracle metadata (id, name, oracles,
oraclesBreakdown) from TypeScript data files, persists the record set
as a snapshot, and reports semantic differences between successive
scans: added and removed oracles and breakdown type changes.

The first run seeds the snapshot; subsequent runs diff against it and
commit the new state unless --dry-run is given.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.repoPath, "repo", "", "Path to the data root (e.g. defi/src/protocols)")
	cmd.PersistentFlags().StringVar(&flags.snapshot, "snapshot", "", "Snapshot file path")
	cmd.PersistentFlags().StringVar(&flags.revision, "revision", "", "Data source revision to stamp on changes (e.g. commit SHA)")
	cmd.PersistentFlags().BoolVar(&flags.collisions, "collisions", false, "Report cross-file id collisions")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.Flags().StringVar(&flags.out, "out", "", "Output format (text, json)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Do not write the snapshot")

	cmd.AddCommand(dumpCmd(flags))
	cmd.AddCommand(watchCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// dumpCmd prints scanned ids (or one full record) and exits without
// touching the snapshot or diffing.
func dumpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [id]",
		Short: "Dump scanned record ids, or one record by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}

			runner := tracker.NewRunner(cfg, logger)
			dataset, _, err := runner.Scan(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				data, err := json.MarshalIndent(dataset.IDs(), "", "  ")
				if err != nil {
					return fmt.Errorf("encode ids: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			rec, ok := dataset[args[0]]
			if !ok {
				return fmt.Errorf("id %q not found in scanned dataset", args[0])
			}
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

// watchCmd re-runs the tracker whenever a target data file changes.
func watchCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool
	var out string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run continuously, re-scanning when data files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			if out != "" {
				cfg.Report.Format = out
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			runner := tracker.NewRunner(cfg, logger)
			watcher, err := tracker.NewWatcher(runner)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}

			opts := tracker.RunOptions{DryRun: dryRun, Revision: flags.revision}
			return watcher.Watch(cmd.Context(), opts, func(outcome *tracker.Outcome) {
				text, err := renderOutcome(cfg, outcome, dryRun)
				if err != nil {
					logger.Error("Render report failed", slog.String("error", err.Error()))
					return
				}
				fmt.Println(text)
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output format (text, json)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not write the snapshot")
	return cmd
}

// runOnce executes a single scan/diff/commit cycle and prints the
// report to stdout.
func runOnce(cmd *cobra.Command, flags *rootFlags) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	if flags.out != "" {
		cfg.Report.Format = flags.out
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	runner := tracker.NewRunner(cfg, logger)
	outcome, err := runner.Run(cmd.Context(), tracker.RunOptions{
		DryRun:   flags.dryRun,
		Revision: flags.revision,
	})
	if err != nil {
		return err
	}

	text, err := renderOutcome(cfg, outcome, flags.dryRun)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// renderOutcome formats a run outcome for the configured output mode.
// First runs get a fixed seed message so the calling layer can tell
// "snapshot absent" apart from "no changes".
func renderOutcome(cfg *config.Config, outcome *tracker.Outcome, dryRun bool) (string, error) {
	if outcome.Kind == tracker.OutcomeFirstRun {
		if dryRun {
			return fmt.Sprintf("DRY-RUN: no snapshot found; would initialize %s.", cfg.Snapshot.Path), nil
		}
		return fmt.Sprintf("Initialized snapshot at %s. Next run will show changes.", cfg.Snapshot.Path), nil
	}

	formatter := &report.Formatter{RepoWebURL: cfg.Repo.WebURL}
	if cfg.Report.Format == config.FormatJSON {
		return formatter.JSON(outcome.Changes)
	}
	return formatter.Text(outcome.Changes), nil
}

// setup builds the effective configuration and logger from flags.
func setup(flags *rootFlags) (*config.Config, *slog.Logger, error) {
	logger := newLogger(flags.logLevel)
	slog.SetDefault(logger)

	loader := config.NewLoader(logger)
	cfg, err := loader.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	// Flags win over file values
	if flags.repoPath != "" {
		abs, err := filepath.Abs(flags.repoPath)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve repo path: %w", err)
		}
		cfg.Repo.Path = abs
	}
	if flags.snapshot != "" {
		cfg.Snapshot.Path = flags.snapshot
	}
	if flags.collisions {
		cfg.Scan.ReportCollisions = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(cfg.Repo.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", cfg.Repo.Path)
	}

	return cfg, logger, nil
}

// newLogger builds a text slog logger on stderr so reports on stdout
// stay machine-consumable.
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
