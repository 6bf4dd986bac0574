package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/summitlift/elevator-site/cmd/mainconfig"
	"github.com/summitlift/elevator-site/internal/app/bootstrap"
	appconfig "github.com/summitlift/elevator-site/internal/config"
	"github.com/summitlift/elevator-site/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting elevator-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.Build(ctx, cfg, deps, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if err := app.Close(); err != nil {
		logger.Error("failed to release resources", "error", err)
	}

	logger.Info("server stopped")
}

// buildDeps creates the AWS clients the configuration asks for.
func buildDeps(ctx context.Context, cfg *appconfig.Config) (bootstrap.Deps, error) {
	var deps bootstrap.Deps
	if !cfg.UsesAWS() {
		return deps, nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return deps, err
	}
	if cfg.RedirectsS3Bucket != "" {
		deps.S3 = mainconfig.NewS3Client(awsCfg, cfg)
	}
	if cfg.EmailProvider == "ses" {
		deps.SES = sesv2.NewFromConfig(awsCfg)
	}
	return deps, nil
}
