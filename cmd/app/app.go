package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/darkorder/ticketing-api/internal/api"
	"github.com/darkorder/ticketing-api/internal/config"
	"github.com/darkorder/ticketing-api/internal/db"
	"github.com/darkorder/ticketing-api/internal/logger"
	"github.com/darkorder/ticketing-api/internal/notify"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = config.Watch(configPath, func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
			return
		}
		zap.L().Info("log level updated", zap.String("level", c.Log.Level))
	}, func(err error) {
		zap.L().Warn("failed to reload config", zap.Error(err))
	})
	if err != nil {
		zap.L().Warn("config hot reload disabled", zap.Error(err))
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	redisClient, err := db.OpenRedis(ctx, conf.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize redis -> %w", err)
	}
	if redisClient == nil {
		zap.L().Warn("redis disabled: no rate limiting or token revocation")
	} else {
		defer redisClient.Close()
	}

	s := api.NewServer(conf, postgresDB, redisClient)
	if err = s.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap admin -> %w", err)
	}

	go s.ScanFeed.Run(ctx)

	if conf.AMQP.URL != "" {
		consumer := notify.NewConsumer(conf.AMQP.URL, conf.AMQP.Queue, s.Mailer)
		go consumer.Run(ctx)
	}

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
