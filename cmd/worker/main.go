package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oip/autopurchase/pkg/config"
	"oip/autopurchase/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "config file path")
)

// shutdownTimeout bounds the HTTP drain on exit
const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  AUTOPURCHASE Worker Starting...")
	log.Println("========================================")

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	// 2. logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// 3. wiring
	ctx := context.Background()
	app, cleanup, err := InitializeApp(ctx, cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer cleanup()

	// 4. manager (workers + scheduler)
	go func() {
		if err := app.Manager.Start(); err != nil {
			log.Fatalf("Manager start failed: %v", err)
		}
	}()

	// 5. HTTP surface
	var server *http.Server
	serverErrCh := make(chan error, 1)
	if app.Engine != nil {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		server = &http.Server{
			Addr:    addr,
			Handler: app.Engine,
		}
		go func() {
			zapLogger.Infof(ctx, "[Main] HTTP server listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- err
			}
		}()
	}

	log.Println("Worker started. Press Ctrl+C to shutdown.")

	// 6. wait for exit
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v, shutting down...\n", sig)
	case err := <-serverErrCh:
		zapLogger.Errorf(ctx, "[Main] HTTP server error: %v", err)
	}

	// 7. graceful shutdown: stop taking requests, then drain workers
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warnf(ctx, "[Main] HTTP server shutdown error: %v", err)
		}
		cancel()
	}
	app.Manager.Shutdown()

	fmt.Println("========================================")
	fmt.Println("  Worker exited gracefully")
	fmt.Println("========================================")
}
