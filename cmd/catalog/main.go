package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"TeluskoTrac/internal/catalog"
	"TeluskoTrac/internal/config"
	"TeluskoTrac/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, log)
	if err != nil {
		log.Error("catalog stopped", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()

	seed := catalog.DefaultSeed()
	if cfg.SeedFile != "" {
		var err error
		if seed, err = catalog.LoadSeedFile(cfg.SeedFile); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}
	store = catalog.NewStoreMetrics(reg).Instrument(store, cfg.Store)

	n, err := catalog.SeedIfEmpty(ctx, store, seed)
	if err != nil {
		return err
	}
	log.Info("catalog ready", zap.String("store", cfg.Store), zap.Int("seeded", n))

	var limiter *kit.IPRateLimiter
	if cfg.WriteRateLimit > 0 {
		limiter = kit.NewIPRateLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow)
	}

	s := &catalog.Server{
		Store:          store,
		Log:            log,
		NotFoundStatus: cfg.NotFoundStatus,
	}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		WriteLimiter:   limiter,
	})

	return kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout)
}

// openStore builds the configured backend, empty or as left by the previous
// run. The returned *sql.DB is nil for the in-memory store.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Store, *sql.DB, error) {
	var (
		driver  string
		dialect catalog.Dialect
	)

	switch cfg.Store {
	case config.StoreMemory:
		mode := catalog.DeleteLast
		if cfg.MemoryDeleteMode == config.DeleteMatch {
			mode = catalog.DeleteMatch
		}
		return catalog.NewMemStore(nil, mode), nil, nil
	case config.StorePostgres:
		driver, dialect = kit.DriverPostgres, catalog.DialectPostgres
	case config.StoreSQLite:
		driver, dialect = kit.DriverSQLite, catalog.DialectSQLite
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	db, err := kit.OpenDB(ctx, driver, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, nil, err
	}

	s := catalog.NewSQLStore(db, dialect, log.Named("store"))
	if err := s.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}
