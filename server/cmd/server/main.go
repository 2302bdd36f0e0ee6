package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/resultcard/resultcard/server/internal/api"
	"github.com/resultcard/resultcard/server/internal/config"
	"github.com/resultcard/resultcard/server/internal/health"
	"github.com/resultcard/resultcard/server/internal/metrics"
	"github.com/resultcard/resultcard/server/internal/store"
	"github.com/resultcard/resultcard/server/internal/ws"
)

// shutdownTimeout bounds graceful HTTP shutdown and the store close.
const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file; defaults are used if it does not exist")
	envFile := flag.String("env-file", ".env", "dotenv file loaded into the environment if present")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	slog.Info("resultcard-server starting", "config", *configPath)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"store_driver", cfg.Store.Driver,
		"log_level", cfg.Log.Level,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *configPath, level); err != nil {
		slog.Error("resultcard-server stopped", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Defaults(), nil
	}
	return cfg, err
}

func run(ctx context.Context, cfg *config.Config, configPath string, level *slog.LevelVar) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			slog.Error("failed to close store", "err", err)
		}
	}()

	// Hot reload: the log level applies live, everything else needs a restart.
	if _, err := os.Stat(configPath); err == nil {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				level.Set(next.Log.SlogLevel())
				slog.Info("config reloaded", "log_level", next.Log.Level)
				if changed := config.RestartRequired(cfg, next); len(changed) > 0 {
					slog.Warn("config changes require a restart", "fields", changed)
				}
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Store health, exposed over gRPC when a port is configured.
	checker := health.New(st, cfg.Store.PingInterval)
	go checker.Run(ctx)

	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("listen on gRPC port %d: %w", cfg.Server.GRPCPort, err)
		}
		grpcSrv = grpc.NewServer()
		checker.Register(grpcSrv)
		go func() {
			slog.Info("gRPC health listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	// WebSocket hub pushes every created result to connected browsers.
	hub := ws.New(st, cfg.Server.CORSOrigins)
	go hub.Run(ctx)

	collector := metrics.New()
	collector.Gauge("resultcard_ws_clients", "Connected WebSocket clients.", func() float64 {
		return float64(hub.Count())
	})

	handler := api.New(st, api.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		UIDir:          cfg.Server.UIDir,
		Publisher:      hub,
		Feed:           hub,
		Metrics:        collector,
	})
	if cfg.Server.UIDir != "" {
		slog.Info("serving UI static files", "dir", cfg.Server.UIDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("resultcard-server shutting down")
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
