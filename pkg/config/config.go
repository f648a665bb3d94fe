package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	Store   StoreConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Ledger  LedgerConfig
	Tracing TracingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env          string // development, staging, production
	Name         string
	LogLevel     string
	BaseCurrency string // moneda por defecto si la sucursal no define una
}

// StoreConfig selecciona el backend de persistencia: "postgres" o "memory" (demo/dev).
type StoreConfig struct {
	Driver string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Pool        PoolConfig
}

// PoolConfig dimensiona el pool de pgx. Los ceros se reemplazan por los defaults de fromViper.
type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ApplicationName   string        // visible en pg_stat_activity
	SlowQuery         time.Duration // consultas más lentas se registran en warn (0 = sin registro)
	PreferIPv4        bool          // marca tcp4 en el dial; útil en contenedores sin IPv6
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig configura la caché de snapshots de stock. Sin URL ni Address se usa caché en memoria.
type RedisConfig struct {
	URL         string
	Address     string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

// Enabled indica si hay un Redis configurado.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Address != ""
}

// KafkaConfig configura la publicación de eventos de dominio. Sin brokers los eventos solo se registran en log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LedgerConfig parámetros del núcleo de inventario.
type LedgerConfig struct {
	LockTimeout  time.Duration // espera máxima por el bloqueo de una línea de stock
	CostWindow   int           // cantidad de entradas recientes para el costo promedio
	CostInterval time.Duration // periodicidad del recálculo de costo (0 = deshabilitado)
}

// TracingConfig configura el exportador OTLP/HTTP. Endpoint vacío = sin exportar.
type TracingConfig struct {
	Endpoint string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, REDIS_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:          getString(v, "APP_ENV", "development"),
			Name:         getString(v, "APP_NAME", "pos-ledger"),
			LogLevel:     getString(v, "LOG_LEVEL", "info"),
			BaseCurrency: strings.ToUpper(getString(v, "BASE_CURRENCY", "COP")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "pos_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			Pool: PoolConfig{
				MaxConns:          int32(getInt(v, "DB_MAX_CONNS", 25)),
				MinConns:          int32(getInt(v, "DB_MIN_CONNS", 2)),
				MaxConnLifetime:   getDuration(v, "DB_CONN_LIFETIME", time.Hour),
				MaxConnIdleTime:   getDuration(v, "DB_CONN_IDLE_TIME", 30*time.Minute),
				HealthCheckPeriod: getDuration(v, "DB_HEALTH_CHECK_PERIOD", time.Minute),
				ApplicationName:   getString(v, "DB_APPLICATION_NAME", ""),
				SlowQuery:         getDuration(v, "DB_SLOW_QUERY", 0),
				PreferIPv4:        getBool(v, "DB_PREFER_IPV4", false),
			},
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "pos-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			URL:         getString(v, "REDIS_URL", ""),
			Address:     getString(v, "REDIS_ADDR", ""),
			Password:    getString(v, "REDIS_PASSWORD", ""),
			DB:          getInt(v, "REDIS_DB", 0),
			SnapshotTTL: getDuration(v, "SNAPSHOT_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "pos.domain-events"),
		},
		Ledger: LedgerConfig{
			LockTimeout:  getDuration(v, "STOCK_LOCK_TIMEOUT", 5*time.Second),
			CostWindow:   getInt(v, "COST_WINDOW", 50),
			CostInterval: getDuration(v, "COST_INTERVAL", 15*time.Minute),
		},
		Tracing: TracingConfig{
			Endpoint: getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}

	if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER inválido: %q (postgres|memory)", cfg.Store.Driver)
	}
	if cfg.DB.Pool.ApplicationName == "" {
		cfg.DB.Pool.ApplicationName = cfg.App.Name
	}
	if cfg.DB.Pool.MaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS debe ser mayor que cero")
	}
	if cfg.DB.Pool.MinConns < 0 || cfg.DB.Pool.MinConns > cfg.DB.Pool.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS debe estar entre 0 y DB_MAX_CONNS")
	}
	if cfg.Ledger.CostWindow <= 0 {
		return nil, fmt.Errorf("COST_WINDOW debe ser mayor que cero")
	}
	if cfg.Ledger.LockTimeout <= 0 {
		return nil, fmt.Errorf("STOCK_LOCK_TIMEOUT debe ser mayor que cero")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getDuration acepta "5s", "15m" o un entero en segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
