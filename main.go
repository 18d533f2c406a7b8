package main

import (
	"context"
	"errors"
	"fmt"
	"hungrypanda/hub-api/app"
	"hungrypanda/hub-api/config"
	"hungrypanda/hub-api/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := app.SetupLogger(cfg); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if cfg.JWT.Generated {
		zap.L().Warn("No JWT secret configured, using a random one. Access tokens won't survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDeps(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer d.Close()

	if cfg.MagicLink.CleanupInterval > 0 {
		service.TokenCleanup(ctx, cfg.MagicLink.CleanupInterval, d.Links)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           app.NewRouter(ctx, d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Failed to shut down server", zap.Error(err))
		}
	}()

	zap.L().Info("Server starting", zap.Int("port", cfg.Host.Port), zap.String("env", cfg.App.Env))

	if cfg.Host.SSLEnabled {
		err = srv.ListenAndServeTLS(cfg.Host.CertificatePath, cfg.Host.CertificateKeyPath)
	} else {
		err = srv.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}

	zap.L().Info("Server stopped")
}
