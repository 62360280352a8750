// Package main implements the lessonbank CLI for maintaining and querying a
// structured lessons corpus.
package main

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/lessonbank/internal/config"
	"github.com/fyrsmithlabs/lessonbank/internal/logging"
)

var (
	// persistent flags
	configPath     string
	corpusRootFlag string
	logLevelFlag   string

	// version information
	version = "dev"

	// cfg and logger are initialized once before any subcommand runs.
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lessonbank",
	Short: "Maintain and query a structured lessons corpus",
	Long: `lessonbank maintains a corpus of distilled operational lessons organized
into three abstraction levels (case, pattern, principle), keeps a derived
index over it, promotes lessons across levels under provenance rules, and
selects the lessons most relevant to a task.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&corpusRootFlag, "corpus-root", "", "Corpus root folder (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// setup loads configuration and builds the logger shared by all subcommands.
// Every invocation gets a run_id field so one run's log lines correlate.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if corpusRootFlag != "" {
		// Keep a defaulted index location in step with the override.
		if cfg.Paths.Index == filepath.Join(cfg.Paths.CorpusRoot, "index.json") {
			cfg.Paths.Index = filepath.Join(corpusRootFlag, "index.json")
		}
		cfg.Paths.CorpusRoot = corpusRootFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}

	logger, err = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", uuid.New().String()))
	return nil
}
