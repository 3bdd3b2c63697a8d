package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bazaar/config"
	"bazaar/internal/database"
	"bazaar/internal/domain"
	"bazaar/internal/logger"
	"bazaar/internal/repository"
	"bazaar/internal/router"
	"bazaar/pkg/gateway"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	cfgHolder, err := config.NewCommissionConfigHolder(zlog)
	if err != nil {
		zlog.Fatal("commission config", zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}
	database.SeedAdmin(db, zlog)

	defaults := config.DefaultCommissionConfig()
	rates := make([]string, len(defaults.LevelRates))
	for i, r := range defaults.LevelRates {
		rates[i] = r.String()
	}
	tiers := make([]string, len(defaults.DiscountTiers))
	for i, t := range defaults.DiscountTiers {
		tiers[i] = t.Threshold.String() + ":" + t.Percent.String()
	}
	settingRepo := repository.NewSettingRepository(db)
	if err := settingRepo.SeedDefaults(map[string]string{
		domain.SettingGatewayFeePercent: defaults.GatewayFeePercent.String(),
		domain.SettingCommissionRates:   strings.Join(rates, ","),
		domain.SettingDiscountTiers:     strings.Join(tiers, ","),
		domain.SettingUnlockThreshold:   defaults.UnlockThreshold.String(),
	}); err != nil {
		zlog.Warn("seed default settings", zap.Error(err))
	}
	if err := cfgHolder.ApplyStored(settingRepo.Get); err != nil {
		zlog.Fatal("stored commission settings", zap.Error(err))
	}

	var provider gateway.Provider
	if cfg.Gateway.APIKey != "" {
		provider = gateway.NewHTTPProvider(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)
	} else {
		zlog.Warn("no gateway API key configured, using stub provider")
		provider = &gateway.StubProvider{}
	}

	engine := router.Setup(cfg, cfgHolder, db, provider, zlog)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("server shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}
