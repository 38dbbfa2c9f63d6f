package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/logging"
	"github.com/guiyumin/igget/internal/core/version"
	"github.com/guiyumin/igget/internal/server"
)

func main() {
	// Command-line flags
	port := flag.Int("port", 0, "HTTP listen port (default: 8080)")
	lang := flag.String("lang", "", "message language (en, vi)")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("igget-server %s\n", version.Version)
		return
	}

	// Load configuration
	cfg := config.LoadOrDefault()

	// Resolve port (flag > config > default)
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if *lang != "" {
		cfg.Language = *lang
	}

	logger := logging.Init(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
