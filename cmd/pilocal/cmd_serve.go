package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/localpi/pilocal/api"
	"github.com/localpi/pilocal/api/validator"
	"github.com/localpi/pilocal/payment"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, store, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.SeedDefaults {
		if _, err := store.SeedDefaults(ctx, time.Now()); err != nil {
			return err
		}
	}

	a := &api.API{
		Logger:   logger,
		Store:    store,
		Payments: payment.NewService(store, cfg.CommissionPercent, logger),
		Val:      validator.New(),
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.HTTPAddr, "backend", cfg.Backend, "escrow_policy", cfg.EscrowPolicy.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Could not shut down HTTP server", "error", err.Error())
		return err
	}
	logger.Info("Stopped")
	return nil
}
