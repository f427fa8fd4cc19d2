package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrewtheguy/s3browser-sub000/internal/config"
	"github.com/andrewtheguy/s3browser-sub000/internal/logger"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3client"
	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/internal/upload"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api"
	"github.com/andrewtheguy/s3browser-sub000/pkg/metrics"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// runServe wires the vault, session store, client factory, and metrics
// registry into a services.Services bundle, builds the API server, and
// blocks until an interrupt is received or the server fails.
func runServe(cmd *cobra.Command, args []string) error {
	if err := logger.Init(logger.Config{Level: logLevel, Format: logFormat}); err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}

	secrets, err := config.LoadSecrets(dir)
	if err != nil {
		return err
	}

	store, err := vault.Open(config.DBPath(dir), []byte(secrets.EncryptionKey))
	if err != nil {
		return err
	}

	var s3Metrics metrics.S3Metrics
	if metricsEnabled {
		metrics.InitRegistry()
		s3Metrics = metrics.NewS3Metrics()
	}

	svc := &services.Services{
		Vault:                store,
		Sessions:             session.New(secrets.LoginPassword),
		Clients:              s3client.New(),
		Upload:               upload.New(),
		Metrics:              s3Metrics,
		SeedTestItemsEnabled: seedTestItemsEnabled,
	}

	apiConfig := api.APIConfig{
		BindAddr:             bindAddr,
		MetricsEnabled:       metricsEnabled,
		SeedTestItemsEnabled: seedTestItemsEnabled,
	}

	server := api.NewServer(apiConfig, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("s3browser is running", "addr", server.Addr())
	fmt.Printf("s3browser listening on %s. Press Ctrl+C to stop.\n", server.Addr())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	logger.Info("s3browser stopped gracefully")
	return nil
}
