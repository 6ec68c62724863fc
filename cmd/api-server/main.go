package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vozclinica/voice-booking/internal/api"
	"github.com/vozclinica/voice-booking/internal/booking"
	"github.com/vozclinica/voice-booking/internal/clinic"
	"github.com/vozclinica/voice-booking/internal/config"
	"github.com/vozclinica/voice-booking/internal/db"
	"github.com/vozclinica/voice-booking/internal/dialog"
	"github.com/vozclinica/voice-booking/internal/observ"
	"github.com/vozclinica/voice-booking/internal/redisclient"
	"github.com/vozclinica/voice-booking/internal/schedule"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	clinics := clinic.NewPgStore(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)

	slotEngine := schedule.NewEngine(scheduleRepo, logger)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	writer := booking.NewWriter(bookingRepo, locker, logger)
	sessions := dialog.NewRedisSessionStore(rdb, cfg.SessionTTL)

	dialogEngine := dialog.NewEngine(sessions, slotEngine, writer, scheduleRepo, dialog.Defaults{
		ProviderID: cfg.DefaultProviderID,
		TypeID:     cfg.DefaultTypeID,
	}, logger)

	router := api.NewRouter(api.RouterConfig{
		Dialog:            dialogEngine,
		Slots:             slotEngine,
		Directory:         scheduleRepo,
		Clinics:           clinics,
		PgPool:            pgPool,
		Redis:             rdb,
		Logger:            logger,
		Env:               cfg.Env,
		Version:           version,
		DefaultClinicSlug: cfg.DefaultClinicSlug,
		SlotHorizonDays:   cfg.SlotHorizonDays,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
