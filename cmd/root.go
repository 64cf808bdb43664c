package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/config"
	"github.com/guardiancare/server/internal/logging"
	"github.com/guardiancare/server/internal/store"
	"github.com/guardiancare/server/internal/store/memstore"
	"github.com/guardiancare/server/internal/store/mongostore"
	"github.com/guardiancare/server/internal/store/oxistore"
)

var rootCmd = &cobra.Command{
	Use:   "guardiancare",
	Short: "Guardian Care hostel meal service",
	Long: `Guardian Care serves the users, meals, meal requests, reviews,
memberships and transactions of a hostel meal program over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(seedCmd)
}

// setup loads the configuration and builds the logger. The returned func
// flushes the logger.
func setup() (*config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, flush, err := logging.New(cfg.LogLevel, cfg.GelfAddr)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "init logger")
	}
	return cfg, log, flush, nil
}

// openStore connects to the store selected by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoConnectionURI(), cfg.DBName, log)
		if err != nil {
			return nil, errors.Wrap(err, "open mongo store")
		}
		return st, nil
	case config.DriverOxiDB:
		st, err := oxistore.Open(ctx, cfg.OxiDBAddr(), cfg.PoolSize, log)
		if err != nil {
			return nil, errors.Wrap(err, "open oxidb store")
		}
		return st, nil
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil
	default:
		return nil, errors.Newf("unknown store driver %q", cfg.StoreDriver)
	}
}
