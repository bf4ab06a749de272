// Package main provides the litmap CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/dataset"
	"github.com/matsen/litmap/internal/logging"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/snapshot"
)

// Version is set at build time via ldflags
var Version = "dev"

// EnvConfig names the environment variable holding a litmap.yml path.
const EnvConfig = "LITMAP_CONFIG"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logLevel    string
	logFormat   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(reportError(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "litmap",
	Short: "Map the overlap of literature-review search queries",
	Long: `litmap groups the papers of a literature review by the branch terms of
their search queries.

For each query it groups papers by their exact set of branch terms, keeps
the papers that matched no branch term apart, and intersects term sets
across queries. Curated "most cited" and "most relevant" exports become
aggregate groups.

Projects are described by litmap.yml. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to litmap.yml (default: $"+EnvConfig+" or search upward)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.Version = Version
}

// configError marks failures to locate or read the project configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode classifies an error returned by a command.
func exitCode(err error) int {
	var ce *configError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ce):
		return ExitConfigError
	case overlap.IsDataError(err):
		return ExitDataError
	default:
		return ExitError
	}
}

// reportError prints err in the selected output format and returns its exit code.
func reportError(err error) int {
	code := exitCode(err)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	} else {
		outputJSON(ErrorResponse{Error: err.Error(), Code: code})
	}
	return code
}

// resolveConfigPath finds litmap.yml: --config, then $LITMAP_CONFIG, then
// the nearest project above the working directory, then the global default
// project.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return config.ExpandPath(p), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if root, err := config.FindProject(cwd); err == nil {
		return config.ConfigPath(root), nil
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if global.ProjectPath != "" && config.IsProject(global.ProjectPath) {
		return config.ConfigPath(global.ProjectPath), nil
	}
	return "", errors.New(config.HelpfulConfigMessage())
}

// loadConfig locates and loads the project configuration.
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, &configError{err}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &configError{fmt.Errorf("loading config: %w", err)}
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger; flags override litmap.yml.
func newLogger(cfg *config.Config) zerolog.Logger {
	lc := logging.DefaultConfig()
	if cfg != nil {
		if cfg.Log.Level != "" {
			lc.Level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			lc.Format = cfg.Log.Format
		}
	}
	if logLevel != "" {
		lc.Level = logLevel
	}
	if logFormat != "" {
		lc.Format = logFormat
	}
	return logging.New(lc)
}

// loadProject loads the configuration and builds a snapshot of the dataset.
func loadProject(ctx context.Context) (*config.Config, *snapshot.Snapshot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	snap, err := buildSnapshot(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, snap, nil
}

// store holds the loaded dataset for the lifetime of the process. A failed
// reload leaves the previously published snapshot in place.
var store *snapshot.Store

// buildSnapshot reloads the dataset cfg describes and returns the published
// snapshot.
func buildSnapshot(ctx context.Context, cfg *config.Config) (*snapshot.Snapshot, error) {
	logger := newLogger(cfg)
	if store == nil {
		store = snapshot.New(logger)
	}
	if _, err := store.Reload(ctx, dataset.Loader(cfg, logger)); err != nil {
		return nil, err
	}
	return store.Current(), nil
}
