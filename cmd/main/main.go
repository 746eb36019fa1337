package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tick-relay/src/config"
	"tick-relay/src/interfaces"
	"tick-relay/src/logger"
	"tick-relay/src/server"
	"tick-relay/src/upstream/kite"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load .env before the config layer reads the environment. The file is
	// optional; system environment variables apply either way.
	godotenv.Load()

	// Load config from YAML file + environment
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	if cfg.Secret == "" {
		appLogger.Warning("No shared secret configured; relay is running in open-access mode")
	}

	// 2. Setup Components
	var factory interfaces.StreamFactory = kite.NewKiteTickerSource
	var srv interfaces.IRelayServer = server.NewRelayServer(cfg.MConfig, appLogger, factory)

	// 3. Run the listener. Failing to bind the port is the one fatal error.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
		return

	case sig := <-quit:
		appLogger.Info("Received signal %v, shutting down...", sig)
	}

	// 4. Graceful shutdown: close every session and its upstream stream, then
	// wait for the listener to fully close.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("Shutdown error: %v", err)
	}
	appLogger.Info("Relay stopped")
}
