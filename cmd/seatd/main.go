// seatd es el servicio de asignación de seats para salas de operaciones.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/seatd/internal/allocator"
	"github.com/dropDatabas3/seatd/internal/catalog"
	"github.com/dropDatabas3/seatd/internal/config"
	httpx "github.com/dropDatabas3/seatd/internal/http"
	seatsctrl "github.com/dropDatabas3/seatd/internal/http/controllers/seats"
	seatssvc "github.com/dropDatabas3/seatd/internal/http/services/seats"
	"github.com/dropDatabas3/seatd/internal/metrics"
	"github.com/dropDatabas3/seatd/internal/observability/logger"
	"github.com/dropDatabas3/seatd/internal/store"
	"github.com/dropDatabas3/seatd/internal/sweeper"
	"github.com/dropDatabas3/seatd/internal/token"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "seatd",
		Short:         "Servicio de seats y credenciales de sala",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SEATD_CONFIG"), "ruta al config.yaml (env SEATD_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP y el sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.AddCommand(serveCmd)

	// Sin subcomando, servir: es el modo normal en contenedores.
	root.RunE = serveCmd.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seatd:", err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("seatd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scfg := store.Config{Driver: cfg.Storage.Driver}
	scfg.Redis.Addr = cfg.Storage.Redis.Addr
	scfg.Redis.Password = cfg.Storage.Redis.Password
	scfg.Redis.DB = cfg.Storage.Redis.DB
	scfg.Redis.Prefix = cfg.Storage.Redis.Prefix
	scfg.Postgres.DSN = cfg.Storage.Postgres.DSN
	scfg.Postgres.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns

	st, err := store.Open(ctx, scfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store ready", logger.String("driver", cfg.Storage.Driver))

	cat := catalog.New(catalog.Sizes{
		Collector: cfg.Seats.Pools.Collector,
		Monitor:   cfg.Seats.Pools.Monitor,
		Crew:      cfg.Seats.Pools.Crew,
	})

	alloc := allocator.New(st, cat, allocator.Config{
		TTL:     cfg.Seats.TTL,
		Ceiling: cfg.Seats.Ceiling,
	})

	issuer, err := token.New(token.Config{
		Tenant:         cfg.Credential.Tenant,
		KID:            cfg.Credential.KID,
		PrivateKeyPEM:  cfg.Credential.PrivateKeyPEM,
		PrivateKeyPath: cfg.Credential.PrivateKeyPath,
		Audience:       cfg.Credential.Audience,
		Iss:            cfg.Credential.Issuer,
		TTL:            cfg.Credential.TTL,
	})
	if err != nil {
		if !errors.Is(err, token.ErrNotConfigured) {
			return fmt.Errorf("credential issuer: %w", err)
		}
		// Sin clave se arranca degradado: allocate responde 503.
		issuer = nil
		log.Warn("credential signing not configured, allocate will be unavailable")
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{
		Store:   st,
		Catalog: cat,
		TTL:     cfg.Seats.TTL,
	})
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	service := seatssvc.New(seatssvc.Deps{
		Allocator: alloc,
		Issuer:    issuer,
		Store:     st,
		Catalog:   cat,
	})
	router := httpx.NewRouter(httpx.RouterDeps{
		Seats:        seatsctrl.New(service),
		AuthSecret:   cfg.Auth.HMACSecret,
		AuthCacheTTL: cfg.Auth.CacheTTL,
		Metrics:      metricsHandler,
		Ready: func(r *http.Request) error {
			return st.Ping(r.Context())
		},
	})

	sw := sweeper.New(st, sweeper.Config{
		TTL:      cfg.Seats.TTL,
		Interval: cfg.Seats.SweepInterval,
	})
	go sw.Run(ctx)

	srv := httpx.NewServer(httpx.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
