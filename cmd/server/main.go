package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jinzhu/gorm"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/configs"
	httpdelivery "orderdesk/internal/delivery/http"
	"orderdesk/internal/delivery/kafka"
	"orderdesk/internal/logging"
	"orderdesk/internal/migrate"
	"orderdesk/internal/repository"
	"orderdesk/internal/repository/memory"
	"orderdesk/internal/repository/postgres"
	"orderdesk/internal/service"
)

// @title Orderdesk API
// @version 1.0
// @description Customers, orders and shipments of a small shop back office. Orders can also be submitted through the Kafka intake topic.

// @host localhost:8081
// @basePath /

func main() {
	_ = godotenv.Load()
	cfg, err := configs.LoadConfig()
	if err != nil {
		logrus.Fatalf("config load: %s", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logrus.WithField("storage", cfg.Storage).Info("config parsed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeStore := openStore(ctx, cfg)
	defer closeStore()

	var opts []service.Option
	var events *kafka.Publisher
	if cfg.KafkaEnabled {
		events = kafka.NewPublisher(cfg.KafkaBrokersSlice(), cfg.KafkaEventsTopic)
		opts = append(opts, service.WithEventPublisher(events))
	}
	svc := service.NewService(repo, opts...)

	var (
		wg       sync.WaitGroup
		consumer *kafka.Consumer
	)
	if cfg.KafkaEnabled {
		consumer = kafka.NewConsumer(kafka.Config{
			Brokers:     cfg.KafkaBrokersSlice(),
			GroupID:     cfg.KafkaGroupID,
			Topic:       cfg.KafkaIntakeTopic,
			DLQ:         cfg.KafkaDLQTopic,
			MaxRetries:  cfg.KafkaMaxRetries,
			BaseBackoff: cfg.KafkaBaseBackoff,
		}, svc)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Subscribe(ctx); err != nil {
				logrus.Errorf("consumer stopped: %v", err)
				cancel()
			}
		}()
		logrus.WithField("topic", cfg.KafkaIntakeTopic).Info("kafka intake started")
	}

	h := httpdelivery.NewHandler(svc, httpdelivery.WithAllowedOrigins(cfg.CORSOrigins()))
	srv := new(httpdelivery.Server)

	go func() {
		if err := srv.Run(cfg.HTTPAddr, h.InitRoutes()); err != nil {
			logrus.Errorf("http run: %v", err)
			cancel()
		}
	}()
	logrus.Infof("http server started on %s", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logrus.Info("shutdown signal received")
	case <-ctx.Done():
		logrus.Info("context canceled, shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("http shutdown: %s", err)
	}

	cancel()
	wg.Wait()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logrus.Errorf("consumer close: %s", err)
		}
	}
	if events != nil {
		if err := events.Close(); err != nil {
			logrus.Errorf("event publisher close: %s", err)
		}
	}
	logrus.Info("service stopped")
}

func openStore(ctx context.Context, cfg configs.Config) (*repository.Repository, func()) {
	if cfg.Storage == "memory" {
		logrus.Warn("using in-memory storage, data is lost on restart")
		return memory.NewRepository(), func() {}
	}

	dsn := cfg.PgDSN()
	if cfg.MigrateOnStart {
		if err := migrate.Apply(ctx, dsn); err != nil {
			logrus.Fatalf("migrate: %s", err)
		}
	}

	db, err := postgres.ConnectDB(postgres.Config{DSN: dsn})
	if err != nil {
		logrus.Fatalf("postgres connect: %s", err)
	}
	logrus.Info("connected to postgres")

	return postgres.NewRepository(db), func() { closeDB(db) }
}

func closeDB(db *gorm.DB) {
	if err := db.Close(); err != nil {
		logrus.Errorf("db close: %v", err)
	}
}
