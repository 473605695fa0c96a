package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"green-finance-risk/internal/api"
	"green-finance-risk/internal/common/config"
)

var serveFlags struct {
	address    string
	withWorker bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.address, "addr", "", "Listen address (default: server.address)")
	f.BoolVar(&serveFlags.withWorker, "with-worker", false, "Also run the Zeebe job worker")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Address
	if serveFlags.address != "" {
		addr = serveFlags.address
	}

	srv := &http.Server{
		Addr: addr,
		Handler: api.NewServer(api.Options{
			Pipeline: a.pipeline,
			Catalog:  a.catalog,
			Ready:    a.store.Loaded,
			Logger:   a.log,
		}).Routes(),
		ReadTimeout:  config.GetDuration(a.cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(a.cfg.Server.WriteTimeout),
	}

	if serveFlags.withWorker {
		stopWorker, err := a.startWorker(ctx)
		if err != nil {
			return err
		}
		defer stopWorker()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("HTTP server listening", map[string]interface{}{"address": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutting down HTTP server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
