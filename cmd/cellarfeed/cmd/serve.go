package cmd

import (
	"context"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/cellarfeed/internal/api"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API.",
		Long: `Serve the catalog API. POST /imports starts a feed import in the
background; SIGINT or SIGTERM stops the server and cancels a running import.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			srv := &http.Server{
				Addr: a.cfg.HTTP.Addr,
				Handler: api.Handler(a.catalog, a.importer,
					api.WithLogger(a.logger),
					api.WithGatherer(a.registry),
					api.WithAllowedOrigins(origins)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "serving http")
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("shutting down")

				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := a.importer.Shutdown(sctx); err != nil {
					a.logger.Warn("import did not stop", zap.Error(err))
				}
				return errors.Wrap(srv.Shutdown(sctx), "shutting down http")
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringSliceVar(&origins, "allowed-origins", nil, "CORS origins allowed to call the API.")
	return cmd
}
