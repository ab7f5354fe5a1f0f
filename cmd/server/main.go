package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/database"
	"github.com/pawanbhattarai/PMS/internal/lock"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/seed"
	"github.com/pawanbhattarai/PMS/internal/server"
	"github.com/pawanbhattarai/PMS/internal/store/gormstore"
	"github.com/pawanbhattarai/PMS/internal/telemetry"
	"github.com/pawanbhattarai/PMS/internal/validate"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	validate.SetDefaultRegion(cfg.PhoneRegion)

	shutdownTracing := telemetry.Setup(cfg.ServiceName, log)

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("migrate database")
	}
	st := gormstore.New(db)

	locker, closeLocker := newLocker(cfg, log)
	defer closeLocker()

	if cfg.SeedDemo {
		if err := seed.Run(context.Background(), st, log); err != nil {
			log.WithError(err).Fatal("seed demo data")
		}
	}

	app := server.New(server.Deps{Config: cfg, Store: st, Locker: locker, Log: log})

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.WithError(err).Fatal("http server stopped")
		}
	}()
	log.WithField("port", cfg.HTTPPort).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.WithError(err).Error("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLocker prefers Redis so booking locks hold across instances, and falls
// back to an in-process lock when Redis is unset or unreachable.
func newLocker(cfg *config.Config, log logrus.FieldLogger) (lock.Locker, func()) {
	if cfg.RedisAddress == "" {
		return lock.NewLocal(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, using in-process booking locks")
		_ = rdb.Close()
		return lock.NewLocal(), func() {}
	}
	log.WithField("addr", cfg.RedisAddress).Info("redis booking locks enabled")
	return lock.NewRedis(rdb), func() { _ = rdb.Close() }
}
