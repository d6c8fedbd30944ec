// Package main - Entry point for the invoice advisor HTTP server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"invoice-advisor/internal/app"
	"invoice-advisor/internal/config"
	"invoice-advisor/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file (JSON); ADVISOR_* environment variables override it")
	addr := flag.String("addr", "", "listen address (default from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logging.Named("advisor"))
	if err != nil {
		logging.Fatal("startup failed", zap.Error(err))
	}
	logging.Info("invoice advisor starting",
		zap.String("version", app.Version),
		zap.String("addr", cfg.Server.Addr))
	if err := a.Serve(ctx); err != nil {
		logging.Fatal("server stopped", zap.Error(err))
	}
}
