package postgres

import (
	"context"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// NewPool abre el pool del ledger y verifica la conexión con un ping.
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := buildPoolConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	log.Info().
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Str("application_name", cfg.Pool.ApplicationName).
		Msg("pool PostgreSQL listo")
	return pool, nil
}

// buildPoolConfig traduce config.DBConfig a la configuración de pgxpool sin abrir conexiones.
func buildPoolConfig(cfg config.DBConfig, log *logger.Logger) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	p := cfg.Pool
	poolConfig.MaxConns = p.MaxConns
	poolConfig.MinConns = p.MinConns
	poolConfig.MaxConnLifetime = p.MaxConnLifetime
	poolConfig.MaxConnIdleTime = p.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = p.HealthCheckPeriod
	if p.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = p.ApplicationName
	}
	if p.PreferIPv4 {
		poolConfig.ConnConfig.DialFunc = dialPreferIPv4
	}
	if p.SlowQuery > 0 {
		poolConfig.ConnConfig.Tracer = &slowQueryTracer{
			threshold: p.SlowQuery,
			log:       log.Component("postgres"),
		}
	}
	poolConfig.AfterConnect = registerTypes
	return poolConfig, nil
}

// registerTypes mapea NUMERIC a decimal.Decimal en cada conexión nueva.
func registerTypes(_ context.Context, conn *pgx.Conn) error {
	pgxdecimal.Register(conn.TypeMap())
	return nil
}

// dialPreferIPv4 intenta tcp4 y cae al dial normal si el host no tiene A.
func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp4", addr)
	if err == nil {
		return conn, nil
	}
	return d.DialContext(ctx, network, addr)
}

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// slowQueryTracer registra en warn las consultas que superan threshold.
type slowQueryTracer struct {
	threshold time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func (t *slowQueryTracer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: t.clock(), sql: data.SQL})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.clock().Sub(start.at)
	if elapsed < t.threshold {
		return
	}
	ev := t.log.Warn().Dur("elapsed", elapsed).Str("sql", start.sql)
	if data.Err != nil {
		ev = ev.Err(data.Err)
	}
	ev.Msg("consulta lenta")
}
