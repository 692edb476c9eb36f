package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail"
	"github.com/mickamy/recordtrail/internal/config"
	"github.com/mickamy/recordtrail/internal/database"
)

// Opener opens the database holding the log tables.
type Opener func(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error)

type app struct {
	configPath string
	open       Opener
}

// NewRoot builds the recordtrail command tree. A nil open uses database.Open.
func NewRoot(open Opener) *cobra.Command {
	if open == nil {
		open = database.Open
	}
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "recordtrail",
		Short:         "Change log for database records",
		Long:          "recordtrail records who changed which attributes of a record and serves the per-record history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("RECORDTRAIL_CONFIG"), "Path to the YAML config file")

	root.AddCommand(a.newMigrateCommand())
	root.AddCommand(a.newRecordCommand())
	root.AddCommand(a.newHistoryCommand())
	root.AddCommand(a.newServeCommand())
	return root
}

// runtime is everything a subcommand needs once the config is loaded.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

func (a *app) start(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log, cfg.App)
	if err != nil {
		return nil, err
	}
	db, err := a.open(ctx, cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, db: db}, nil
}

func (r *runtime) handler(observer recordtrail.Observer, publisher recordtrail.Publisher) (*recordtrail.Handler, error) {
	hc, err := r.cfg.Handler()
	if err != nil {
		return nil, err
	}
	hc.Dialect = r.db.Dialect
	hc.Logger = r.logger
	hc.Observer = observer
	hc.Publisher = publisher
	return recordtrail.New(hc), nil
}

func (r *runtime) close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = r.logger.Sync()
}

func (a *app) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the log tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.start(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			h, err := rt.handler(nil, nil)
			if err != nil {
				return err
			}
			if err := h.Migrate(ctx, rt.db); err != nil {
				return err
			}
			rt.logger.Info("log tables ready",
				zap.String("dialect", h.Dialect().Name()),
				zap.String("schema", rt.cfg.Database.Schema),
			)
			return printf(cmd.OutOrStdout(), "log tables ready (%s)\n", h.Dialect().Name())
		},
	}
}

func printf(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
