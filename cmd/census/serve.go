package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/census-engine/api"
	"github.com/warp/census-engine/importer"
)

func newServeCmd(a *app) *cobra.Command {
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), origins)
		},
	}
	cmd.Flags().String("port", "", "HTTP server port")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	return cmd
}

// serve runs the API until ctx is cancelled, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait for active requests to complete (30s timeout)
//  3. Stop the recount scheduler
//  4. Close the database
func (a *app) serve(ctx context.Context, origins []string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	im := importer.New(a.engine(store), a.columns, store, a.log)
	handler := api.NewHandler(store, im, a.log)

	scheduler := api.NewRecountScheduler(store, a.log)
	scheduler.Enabled = a.cfg.RecountEnabled
	if a.cfg.RecountInterval > 0 {
		scheduler.CheckInterval = a.cfg.RecountInterval
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.NewRouter(handler, origins...),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute, // large sheet imports run inside the request
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", "http://localhost:"+a.cfg.Port, "db", a.cfg.DB)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			a.log.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server forced to shutdown", "error", err)
		return err
	}
	a.log.Info("server stopped")
	return nil
}
