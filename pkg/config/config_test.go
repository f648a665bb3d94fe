package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 50, cfg.Ledger.CostWindow)
	assert.Equal(t, 15*time.Minute, cfg.Ledger.CostInterval)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("STOCK_LOCK_TIMEOUT", "250ms")
	v.Set("COST_WINDOW", "20")
	v.Set("COST_INTERVAL", "0")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("BASE_CURRENCY", "usd")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 20, cfg.Ledger.CostWindow)
	assert.Equal(t, time.Duration(0), cfg.Ledger.CostInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "USD", cfg.App.BaseCurrency)
}

func TestFromViper_RechazaDriverDesconocido(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "mongo")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:w/rd", DBName: "pos", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aw%2Frd@db:5432/pos?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

func TestFromViper_PoolPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	p := cfg.DB.Pool
	assert.Equal(t, int32(25), p.MaxConns)
	assert.Equal(t, int32(2), p.MinConns)
	assert.Equal(t, time.Hour, p.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, p.MaxConnIdleTime)
	assert.Equal(t, time.Minute, p.HealthCheckPeriod)
	assert.Equal(t, "pos-ledger", p.ApplicationName)
	assert.Zero(t, p.SlowQuery)
	assert.False(t, p.PreferIPv4)
}

func TestFromViper_PoolDesdeVariables(t *testing.T) {
	v := viper.New()
	v.Set("APP_NAME", "caja-norte")
	v.Set("DB_MAX_CONNS", "8")
	v.Set("DB_MIN_CONNS", "1")
	v.Set("DB_CONN_IDLE_TIME", "90")
	v.Set("DB_SLOW_QUERY", "200ms")
	v.Set("DB_PREFER_IPV4", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	p := cfg.DB.Pool
	assert.Equal(t, int32(8), p.MaxConns)
	assert.Equal(t, int32(1), p.MinConns)
	assert.Equal(t, 90*time.Second, p.MaxConnIdleTime)
	assert.Equal(t, 200*time.Millisecond, p.SlowQuery)
	assert.True(t, p.PreferIPv4)
	assert.Equal(t, "caja-norte", p.ApplicationName)
}

func TestFromViper_RechazaPoolInconsistente(t *testing.T) {
	// Caso 1: mínimo mayor que máximo
	v := viper.New()
	v.Set("DB_MAX_CONNS", "2")
	v.Set("DB_MIN_CONNS", "5")
	_, err := fromViper(v)
	assert.Error(t, err)

	// Caso 2: máximo en cero
	v = viper.New()
	v.Set("DB_MAX_CONNS", "0")
	_, err = fromViper(v)
	assert.Error(t, err)
}
