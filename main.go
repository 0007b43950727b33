package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/NayabMushtaq/NayMish-blog/internal/config"
	"github.com/NayabMushtaq/NayMish-blog/internal/db"
	"github.com/NayabMushtaq/NayMish-blog/internal/handlers"
	"github.com/NayabMushtaq/NayMish-blog/internal/uploads"
)

func main() {
	configPath := pflag.String("config", os.Getenv("BLOG_CONFIG"), "path to a YAML config file")
	port := pflag.String("port", "", "listen port (overrides config and PORT)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if cfg.AdminPass == config.DefaultAdminPass {
		logger.Warn("using the default admin password; set ADMIN_PASS")
	}

	store := db.NewStore(cfg.DataDir, db.Options{Logger: logger})
	store.Init()
	if err := store.BootstrapAdmin(cfg.AdminPass); err != nil {
		logger.Error("bootstrap admin", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		logger.Error("create uploads dir", "path", cfg.UploadsDir, "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:  cfg,
		Store:   store,
		Uploads: uploads.NewStore(cfg.UploadsDir, logger),
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
