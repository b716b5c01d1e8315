package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/configs"
	"orderdesk/internal/logging"
	"orderdesk/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "revert all migrations")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := configs.LoadConfig()
	if err != nil {
		logrus.Fatalf("config load: %s", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	if *down {
		if err := migrate.Down(ctx, cfg.PgDSN()); err != nil {
			logrus.Fatalf("migrate down: %s", err)
		}
		logrus.Info("migrations reverted")
		return
	}
	if err := migrate.Apply(ctx, cfg.PgDSN()); err != nil {
		logrus.Fatalf("apply migrations: %s", err)
	}
	logrus.Info("migrations applied")
}
