// Package cmd holds the cellarfeed commands.
package cmd

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ib-77/cellarfeed/internal/config"
	"github.com/ib-77/cellarfeed/internal/logging"
	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/catalog/boltstore"
	"github.com/ib-77/cellarfeed/pkg/catalog/pgstore"
	"github.com/ib-77/cellarfeed/pkg/feed"
	"github.com/ib-77/cellarfeed/pkg/importer"
)

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "cellarfeed",
		Short: "Imports the wine listings feed into the catalog and serves it.",
		Long: `cellarfeed streams the listings CSV feed into a producer and product
catalog and serves the catalog over HTTP.

Settings come from flags, CELLARFEED_* environment variables and an
optional config file, in that order.`,
		SilenceUsage: true,
	}
	config.Flags(rc.PersistentFlags())

	rc.AddCommand(newServeCommand(stdin, stdout, stderr))
	rc.AddCommand(newImportCommand(stdin, stdout, stderr))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// app is everything a command needs, built from the resolved config.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    catalog.Store
	catalog  *catalog.Service
	registry *prometheus.Registry
	importer *importer.Importer
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	logger.Info("store opened", zap.String("driver", cfg.Store.Driver))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := catalog.NewService(store, logger)
	client := feed.NewClient(
		feed.WithRetryMax(cfg.Feed.Retries),
		feed.WithHeaderTimeout(cfg.Feed.Timeout),
		feed.WithLogger(logger))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		catalog:  svc,
		registry: registry,
		importer: importer.New(client, svc.ImportRecord,
			importer.WithURL(cfg.Feed.URL),
			importer.WithLogger(logger),
			importer.WithRegistry(registry)),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openStore(ctx context.Context, c config.Store) (catalog.Store, error) {
	switch c.Driver {
	case config.DriverBolt:
		return boltstore.Open(c.Bolt.Path)
	case config.DriverPostgres:
		return pgstore.Open(ctx, c.Postgres.DSN, c.Postgres.MaxConns)
	default:
		return catalog.NewMemoryStore(), nil
	}
}
