package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/configs"
	"orderdesk/internal/delivery/kafka"
	"orderdesk/internal/logging"
)

// publisher sends the create-order command stored at JSON_COMMAND_PATH (or
// the first argument) to the intake topic.
func main() {
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		logrus.Fatalf("error loading config: %s", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	path := cfg.JSONCommandPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	body, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("read json file: %s", err)
	}

	pub := kafka.NewPublisher(cfg.KafkaBrokersSlice(), cfg.KafkaIntakeTopic)
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			logrus.Errorf("publisher close: %v", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, body); err != nil {
		logrus.Fatalf("publish failed: %s", err)
	}
	logrus.WithFields(logrus.Fields{"topic": cfg.KafkaIntakeTopic, "file": path}).Info("create-order command published")
}
