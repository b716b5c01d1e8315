package configs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8081"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowed     string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Storage is "postgres" or "memory".
	Storage string `env:"STORAGE" envDefault:"postgres"`

	DatabaseURL      string        `env:"DATABASE_URL" envDefault:""`
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"orders"`
	PostgresSSLMode  string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"5s"`
	MigrateOnStart   bool          `env:"MIGRATE_ON_START" envDefault:"true"`

	KafkaEnabled     bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers     string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaIntakeTopic string        `env:"KAFKA_INTAKE_TOPIC" envDefault:"orders.intake"`
	KafkaEventsTopic string        `env:"KAFKA_EVENTS_TOPIC" envDefault:"orders.events"`
	KafkaDLQTopic    string        `env:"KAFKA_DLQ_TOPIC" envDefault:"orders.intake.dlq"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" envDefault:"orderdesk"`
	KafkaMaxRetries  int           `env:"KAFKA_MAX_RETRIES" envDefault:"5"`
	KafkaBaseBackoff time.Duration `env:"KAFKA_BASE_BACKOFF" envDefault:"200ms"`

	JSONCommandPath string `env:"JSON_COMMAND_PATH" envDefault:"web/order.json"`
}

func LoadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	switch c.Storage {
	case "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("config parse: STORAGE must be postgres or memory, got %q", c.Storage)
	}
	return c, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) KafkaBrokersSlice() []string {
	return splitList(c.KafkaBrokers)
}

func (c Config) CORSOrigins() []string {
	return splitList(c.CORSAllowed)
}

// PgDSN returns DATABASE_URL, or a URL assembled from the POSTGRES_* keys,
// with statement_timeout (milliseconds) added when configured.
func (c Config) PgDSN() string {
	dsn := c.DatabaseURL
	if dsn == "" {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.PostgresUser, c.PostgresPass),
			Host:     c.PostgresHost + ":" + c.PostgresPort,
			Path:     "/" + c.PostgresDB,
			RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
		}
		dsn = u.String()
	}
	if c.StatementTimeout <= 0 || strings.Contains(dsn, "statement_timeout") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sstatement_timeout=%d", dsn, sep, c.StatementTimeout.Milliseconds())
}
