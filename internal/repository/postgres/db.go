package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	DbName   string
	SslMode  string

	// DSN, when set, is used as is and the fields above are ignored.
	DSN string
	// StatementTimeout is sent as the statement_timeout run-time parameter.
	StatementTimeout time.Duration
}

func (c Config) String() string {
	if c.DSN != "" {
		return c.DSN
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DbName, c.SslMode)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}

func ConnectDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open("postgres", cfg.String())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.DB().PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.DB().SetMaxOpenConns(20)
	db.DB().SetMaxIdleConns(5)
	db.DB().SetConnMaxLifetime(30 * time.Minute)
	db.LogMode(false)
	return db, nil
}
