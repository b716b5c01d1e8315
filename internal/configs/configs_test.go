package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8081", c.HTTPAddr)
	require.Equal(t, "postgres", c.Storage)
	require.Equal(t, 5*time.Second, c.StatementTimeout)
	require.Equal(t, 5, c.KafkaMaxRetries)
	require.Equal(t, 200*time.Millisecond, c.KafkaBaseBackoff)
	require.False(t, c.KafkaEnabled)
	require.Equal(t, []string{"*"}, c.CORSOrigins())
}

func TestLoadConfig_RejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "redis")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestKafkaBrokersSlice(t *testing.T) {
	c := Config{KafkaBrokers: " a:9092, ,b:9092 "}
	require.Equal(t, []string{"a:9092", "b:9092"}, c.KafkaBrokersSlice())
}

func TestPgDSN(t *testing.T) {
	c := Config{
		PostgresUser:     "app",
		PostgresPass:     "p@ss",
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresDB:       "orders",
		PostgresSSLMode:  "disable",
		StatementTimeout: 3 * time.Second,
	}
	require.Equal(t, "postgres://app:p%40ss@db:5432/orders?sslmode=disable&statement_timeout=3000", c.PgDSN())

	c.DatabaseURL = "postgres://u:p@h/db"
	require.Equal(t, "postgres://u:p@h/db?statement_timeout=3000", c.PgDSN())

	c.StatementTimeout = 0
	require.Equal(t, "postgres://u:p@h/db", c.PgDSN())
}
