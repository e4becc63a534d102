// Package store provee los backends del Room Ledger.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing y despliegues single-node)
//   - Redis (compartido, para multi-instancia)
//   - Postgres (compartido, transaccional)
//
// Nunca confiamos en memoria local del proceso como fuente de verdad cuando
// hay más de una instancia del servicio: ahí el driver debe ser redis o
// postgres.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/seatd/internal/ledger"
	"github.com/dropDatabas3/seatd/internal/store/memory"
	"github.com/dropDatabas3/seatd/internal/store/pg"
	storeredis "github.com/dropDatabas3/seatd/internal/store/redis"
)

// Config selecciona y configura el backend.
type Config struct {
	Driver string // "memory" | "redis" | "postgres"

	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	Postgres struct {
		DSN          string
		MaxOpenConns int
	}
}

// Open crea el backend según la configuración.
func Open(ctx context.Context, cfg Config) (ledger.Store, error) {
	switch cfg.Driver {
	case "redis":
		return storeredis.New(ctx, storeredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case "postgres", "pg":
		return pg.New(ctx, pg.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
