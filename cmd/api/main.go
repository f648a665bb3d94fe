package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/application/usecase"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/pos-ledger/internal/interfaces/http"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/jhoicas/pos-ledger/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.App.Name, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	b, err := newBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer b.close()

	snapshots, closeCache, err := newSnapshotCache(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer closeCache()

	audit, closeAudit := newAuditEmitter(cfg.Kafka, log)
	defer closeAudit()

	ledger := inventory.NewLedgerStore(b.ledger, snapshots, log)
	projector := inventory.NewQuantityProjector(b.ledger, b.products, b.warehouses, snapshots, log)
	stockSvc := inventory.NewStockService(b.tx, ledger, b.products, b.warehouses, audit, log, m)
	costEstimator := inventory.NewCostEstimator(b.ledger, b.products, b.costs, cfg.Ledger.CostWindow, log, m)
	replenishmentUC := inventory.NewReplenishmentUseCase(b.products, projector, log)

	engine := pos.NewEngine(pos.EngineDeps{
		Tx:         b.tx,
		Stock:      stockSvc,
		Products:   b.products,
		Warehouses: b.warehouses,
		Branches:   b.branches,
		Sales:      b.sales,
		Taxes:      b.taxes,
		Currency:   b.currency,
		Reconciler: b.reconciler,
		Audit:      audit,
		Log:        log,
		Metrics:    m,
	})
	syncAdapter := pos.NewSyncAdapter(engine, b.sales, log, m)

	// En modo memoria no hay datos persistidos: se carga el catálogo demo.
	if cfg.Store.Driver == "memory" {
		repos := seed.Repos{Branches: b.branches, Warehouses: b.warehouses, Products: b.products}
		if err := seed.Demo(ctx, repos, stockSvc, log); err != nil {
			log.Fatal().Err(err).Msg("cargar catálogo demo")
		}
	}

	if cfg.Ledger.CostInterval > 0 {
		go costEstimator.Run(ctx, cfg.Ledger.CostInterval)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := b.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", httpRouter.MetricsHandler(registry))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:         stockSvc,
		Projector:     projector,
		Ledger:        ledger,
		Cost:          costEstimator,
		Replenishment: replenishmentUC,
		Engine:        engine,
		Sync:          syncAdapter,
		WarehouseUC:   usecase.NewWarehouseUseCase(b.warehouses, b.branches),
		ProductUC:     usecase.NewProductUseCase(b.products),
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
