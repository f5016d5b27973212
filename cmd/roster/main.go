/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the shift roster service.

COMMANDS:
  serve     HTTP API plus the scheduled sheet refresh
  generate  Offline run over a CSV export; prints the roster and load table
  history   Print locked weeks

CONFIGURATION:
  --config  Optional YAML file. ROSTER_* environment variables override it.
            See config/config.go for every key.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM serve:
  1. Stops the refresh scheduler
  2. Waits for active requests to complete (10s timeout)
  3. Closes the history store

EXAMPLES:
  roster serve --config ./roster.yaml
  ROSTER_STORAGE_DRIVER=memory roster serve
  roster generate --csv ./export.csv --seed 42
  roster history

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
*/
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/shift-roster/config"
	"github.com/warp/shift-roster/logging"
	"github.com/warp/shift-roster/schedule"
	memstore "github.com/warp/shift-roster/schedule/store"
	"github.com/warp/shift-roster/store/redis"
	"github.com/warp/shift-roster/store/sqlite"
)

var (
	logger     zerolog.Logger
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "roster",
	Short:         "Weekly cafe shift roster",
	Long:          "Builds fair weekly shift rosters from staff availability sheets and keeps the history of locked weeks.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd, generateCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// openStore builds the configured HistoryStore. The returned close func is
// never nil.
func openStore() (schedule.HistoryStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memstore.NewMemory(), func() error { return nil }, nil

	case config.StorageRedis:
		s, err := redis.New(redis.Config{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Key:      cfg.Storage.RedisKey,
		}, logging.Component(logger, "store"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		s, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Storage.Path, err)
		}
		return s, s.Close, nil
	}
}
