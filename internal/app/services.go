package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/archive"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/observability"
	"github.com/odyssey-erp/bukubesar/internal/platform/cache"
	"github.com/odyssey-erp/bukubesar/internal/platform/db"
	"github.com/odyssey-erp/bukubesar/internal/reportcache"
	"github.com/odyssey-erp/bukubesar/internal/store"
	"github.com/odyssey-erp/bukubesar/internal/store/postgres"
	"github.com/odyssey-erp/bukubesar/internal/store/sqlite"
	"github.com/odyssey-erp/bukubesar/internal/store/xlsx"
)

// Services holds the long-lived dependencies of a process.
type Services struct {
	Config     *Config
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Engine     *ledger.Engine
	Repository store.Repository
	Archive    *archive.Archive
	Redis      *redis.Client
	Cache      *reportcache.Cache

	closers []func() error
}

// Close releases every resource opened by Build in reverse order.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Build opens the store, archive and cache and restores the ledger from the
// store. An empty store starts a fresh period.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger, Metrics: metrics}
	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	repo, closeRepo, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Repository = repo
	if closeRepo != nil {
		s.closers = append(s.closers, closeRepo)
	}

	if path := strings.TrimSpace(cfg.ArchivePath); path != "" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		arc, err := archive.Open(path)
		if err != nil {
			return nil, err
		}
		s.Archive = arc
		s.closers = append(s.closers, arc.Close)
	}

	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	if client != nil {
		s.Redis = client
		s.closers = append(s.closers, client.Close)
		if err := reportcache.SetupMetrics(metrics.Registerer()); err != nil {
			return nil, err
		}
		s.Cache = reportcache.New(client, cfg.ReportCacheTTL, logger)
	}

	engine, err := NewEngine(cfg, logger, metrics, s.Archive)
	if err != nil {
		return nil, err
	}
	s.Engine = engine

	if repo != nil {
		switch err := engine.Load(ctx, repo); {
		case errors.Is(err, store.ErrEmpty):
			logger.Info("store is empty, starting a new period", slog.String("period", engine.Period().Label))
		case err != nil:
			return nil, fmt.Errorf("restore ledger: %w", err)
		}
	}
	ok = true
	return s, nil
}

// NewEngine builds a ledger engine from configuration.
func NewEngine(cfg *Config, logger *slog.Logger, metrics *observability.Metrics, arc *archive.Archive) (*ledger.Engine, error) {
	chart := accounts.DefaultChart()
	if path := strings.TrimSpace(cfg.ChartPath); path != "" {
		loaded, err := accounts.LoadChartFile(path)
		if err != nil {
			return nil, err
		}
		chart = loaded
	}
	start, err := cfg.PeriodStartDate()
	if err != nil {
		return nil, err
	}
	credential, err := cfg.Credential()
	if err != nil {
		return nil, err
	}
	ledgerCfg := ledger.Config{
		PeriodStart: start,
		Chart:       chart,
		Accounts:    cfg.InventoryAccounts(),
		Credential:  credential,
		Logger:      logger,
	}
	if arc != nil {
		ledgerCfg.Archive = arc
	}
	if metrics != nil {
		ledgerCfg.Observer = metrics
	}
	return ledger.New(ledgerCfg)
}

// Credential prefers the bcrypt hash over the plain secret.
func (c *Config) Credential() (ledger.Credential, error) {
	if hash := strings.TrimSpace(c.AdminSecretBcrypt); hash != "" {
		return ledger.BcryptCredential(hash), nil
	}
	if c.AdminSecret == "" {
		return nil, errors.New("admin secret must be provided")
	}
	return ledger.SecretCredential(c.AdminSecret), nil
}

// OpenStore opens the repository selected by STORE_DRIVER. The returned
// closer may be nil.
func OpenStore(ctx context.Context, cfg *Config) (store.Repository, func() error, error) {
	switch cfg.StoreDriver {
	case StoreNone, "":
		return nil, nil, nil
	case StoreXLSX:
		if err := ensureDir(cfg.StorePath); err != nil {
			return nil, nil, err
		}
		return xlsx.New(cfg.StorePath), nil, nil
	case StoreSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.New(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
