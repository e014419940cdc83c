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

	"github.com/sirupsen/logrus"

	"asset-registry-backend/config"
	"asset-registry-backend/internal/api"
	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/auth"
	"asset-registry-backend/internal/db"
	"asset-registry-backend/internal/ledger"
	"asset-registry-backend/internal/lifecycle"
	"asset-registry-backend/internal/registry"
	"asset-registry-backend/internal/users"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logrus.Infof("configuration loaded from %s", configPath)

	if cfg.Auth.JWTSecret == "" || cfg.Auth.AdminPasswordHash == "" {
		logrus.Fatal("auth.jwt_secret and auth.admin_password_hash must be configured")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}

	recorder := audit.NewRecorder(gormDB)
	reg := registry.New(gormDB)
	led := ledger.New(gormDB)
	dir := users.NewDirectory(gormDB)
	coordinator := lifecycle.NewCoordinator(gormDB, reg, led, recorder)
	authSvc := auth.NewService(cfg.Auth, recorder)

	handler := api.NewHandler(coordinator, reg, led, recorder, dir, authSvc)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logrus.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("HTTP server Shutdown: %v", err)
	}

	logrus.Info("server gracefully stopped")
}
