// migrate aplica las migraciones embebidas de PostgreSQL.
//
// Uso: go run ./cmd/migrate -cmd up|down|status|redo|version|files [-version YYYYMMDDHHMMSS]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

func main() {
	cmd := flag.String("cmd", "up", "comando de migración: up|down|status|redo|version|files")
	version := flag.String("version", "", "versión destino (YYYYMMDDHHMMSS) para -cmd=version")
	flag.Parse()

	// No requiere BD
	if *cmd == "files" {
		files, err := postgres.MigrationFiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "listar migraciones: %v\n", err)
			os.Exit(1)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).Component("migrate")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	log.Info().Str("cmd", *cmd).Msg("migración iniciada")
	switch *cmd {
	case "up", "down", "status", "redo":
		err = postgres.Migrate(ctx, pool, *cmd)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "falta -version para -cmd=version")
			os.Exit(1)
		}
		err = postgres.MigrateToVersion(ctx, pool, *version)
	default:
		fmt.Fprintln(os.Stderr, "valor de -cmd desconocido:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migración fallida")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Str("cmd", *cmd).Msg("migración terminada")
}
