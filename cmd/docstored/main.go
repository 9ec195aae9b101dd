// docstored is the docstore session server.
//
// It serves short-lived get/list/set requests and long-lived subscribe
// connections over the same TCP listener, persisting documents and the
// audit trail in either local JSON files or a SQLite table, selected
// once at startup.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/docstore-core/internal/audit"
	"github.com/nerrad567/docstore-core/internal/document"
	"github.com/nerrad567/docstore-core/internal/infrastructure/config"
	"github.com/nerrad567/docstore-core/internal/infrastructure/database"
	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/metrics"
	"github.com/nerrad567/docstore-core/internal/server"
	"github.com/nerrad567/docstore-core/internal/service"
	"github.com/nerrad567/docstore-core/internal/subscriber"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
)

var (
	flagConfig  string
	flagPort    int
	flagBackend string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "docstored",
		Short:         "Document store session server",
		Long:          "docstored serves get/list/set requests and subscriber push notifications over TCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	root.Flags().StringVarP(&flagConfig, "config", "c", "", "path to config.yaml (optional)")
	root.Flags().IntVarP(&flagPort, "port", "p", 0, "TCP listen port (overrides config)")
	root.Flags().StringVarP(&flagBackend, "backend", "b", "", "storage backend: file or table (overrides config)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual server logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting docstored",
		"version", version,
		"backend", cfg.Storage.Backend,
		"addr", cfg.ListenAddr(),
	)

	m := metrics.New()

	store, auditLog, health, cleanup, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := subscriber.NewRegistry(log.With("component", "registry"), m)
	svc := service.New(store, auditLog, registry, m, log.With("component", "service"))
	srv := server.New(cfg, svc, registry, m, log.With("component", "server"))

	if cfg.Metrics.Enabled {
		startDiagnostics(ctx, cfg, m, health, log)
	}

	return srv.ListenAndServe(ctx)
}

// loadConfig resolves configuration from file, environment, and flags.
// Flags win over environment, environment over file, file over defaults.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	path := flagConfig
	if path == "" {
		path = os.Getenv("DOCSTORE_CONFIG")
	}

	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagBackend != "" {
		cfg.Storage.Backend = strings.ToLower(flagBackend)
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// openStorage constructs the document store and audit log for the
// configured backend. Both share one backend: two JSON files, or two
// tables in one SQLite database. The returned health check backs the
// diagnostics /healthz endpoint; it is nil for the file backend, which
// has no connection to probe.
func openStorage(cfg *config.Config, log *logging.Logger) (document.Store, audit.Log, func(context.Context) error, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		store, err := document.NewFileStore(cfg.Storage.File.DocumentsPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		auditLog, err := audit.NewFileLog(cfg.Storage.File.AuditPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		log.Info("file storage ready",
			"documents", cfg.Storage.File.DocumentsPath,
			"audit", cfg.Storage.File.AuditPath,
		)
		return store, auditLog, nil, func() {}, nil

	case config.BackendTable:
		db, err := database.Open(database.Config{
			Path:        cfg.Storage.Table.Path,
			WALMode:     cfg.Storage.Table.WALMode,
			BusyTimeout: cfg.Storage.Table.BusyTimeout,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening database: %w", err)
		}
		cleanup := func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		store, err := document.NewTableStore(db.DB, cfg.Storage.Table.ScanPageSize)
		if err != nil {
			cleanup()
			return nil, nil, nil, nil, err
		}
		auditLog, err := audit.NewTableLog(db.DB)
		if err != nil {
			cleanup()
			return nil, nil, nil, nil, err
		}
		log.Info("table storage ready", "path", db.Path())
		return store, auditLog, db.HealthCheck, cleanup, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// startDiagnostics serves /metrics and /healthz on the configured
// address. Failures here are logged, never fatal: diagnostics must not
// take the data path down.
func startDiagnostics(ctx context.Context, cfg *config.Config, m *metrics.Metrics, health func(context.Context) error, log *logging.Logger) {
	httpSrv := &http.Server{
		Addr:    cfg.MetricsAddr(),
		Handler: m.Router(health),
	}

	go func() {
		log.Info("diagnostics listening", "addr", cfg.MetricsAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("diagnostics server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = httpSrv.Close() //nolint:errcheck // Best-effort shutdown
	}()
}
