package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"docsearch/backend/go/internal/config"
	"docsearch/backend/go/internal/rag_service/api"
	"docsearch/backend/go/internal/rag_service/service"
	apphttp "docsearch/backend/go/pkg/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, os.Stdout, service.Limits{MinFiles: cfg.Ingest.MinFiles, MaxFiles: cfg.Ingest.MaxFiles}, false)
	if err != nil {
		return err
	}
	a.log.Info(fmt.Sprintf("Starting %s %s...", cfg.App.Name, cfg.App.Version))

	limiter, err := apphttp.NewClientRateLimiter(cfg.Middleware.RateLimiter)
	if err != nil {
		_ = a.close(ctx)
		return err
	}
	handler := api.NewAPI(a.svc, a.log, cfg.HTTP.MaxUploadMB<<20)
	router := api.NewRouter(handler, limiter, cfg.HTTP, a.log)
	srv := apphttp.NewServer(router, apphttp.WithAddress(cfg.HTTP.Address))

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(fmt.Sprintf("HTTP server listening at %s", srv.Addr()))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case sig := <-quit:
		a.log.Info(fmt.Sprintf("Received %s, shutting down...", sig))
	case serveErr = <-errCh:
		if serveErr != nil {
			a.log.WithErr(serveErr, "server_error").Error("HTTP server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.HTTP.ShutdownTimeout, 10*time.Second))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithErr(err, "server_error").Warn("HTTP server did not shut down cleanly")
	}
	if err := a.close(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	a.log.Info("Server gracefully stopped")
	return serveErr
}
