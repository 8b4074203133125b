// Package app wires configuration into the store, caches, services and
// handlers shared by the server and the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paydesk/internal/config"
	"paydesk/internal/handlers"
	"paydesk/internal/logging"
	"paydesk/internal/middleware"
	"paydesk/internal/repositories"
	"paydesk/internal/repositories/cache"
	"paydesk/internal/repositories/memory"
	"paydesk/internal/routes"
	"paydesk/internal/services/auth"
	"paydesk/internal/services/bulk"
	"paydesk/internal/services/calculator"
	"paydesk/internal/services/linking"
	"paydesk/internal/services/notification"
	"paydesk/internal/services/registry"
	"paydesk/internal/services/session"
	"paydesk/internal/services/team"
	"paydesk/internal/storage"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const Version = "1.0.0"

type Deps struct {
	Config config.Config
	Log    *logging.Logger

	Store      repositories.Store
	Cache      cache.Cache
	Calculator *calculator.Calculator
	Auth       *auth.Service
	Linking    *linking.Service
	Bulk       *bulk.Service
	Team       *team.Service
	Sessions   *session.Manager

	db     *gorm.DB
	redis  *cache.CacheService
	checks map[string]handlers.Checker
}

// OpenStore returns the configured store. STORE_DRIVER=memory keeps
// everything in process.
func OpenStore(cfg config.Config, log *logging.Logger) (repositories.Store, *gorm.DB, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("Using in-memory store; data is lost on restart")
		return memory.New(), nil, nil
	case "postgres", "":
		db, err := repositories.OpenDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewGormStore(db), db, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// FeeModel parses the configured fee blend.
func FeeModel(cfg config.Config) (calculator.FeeModel, error) {
	var (
		m   calculator.FeeModel
		err error
	)
	if m.RegulatedShare, err = decimal.NewFromString(cfg.RegulatedShare); err != nil {
		return m, fmt.Errorf("FEE_REGULATED_SHARE: %w", err)
	}
	if m.RegulatedCostRate, err = decimal.NewFromString(cfg.RegulatedCostRate); err != nil {
		return m, fmt.Errorf("FEE_REGULATED_COST_RATE: %w", err)
	}
	if m.UnregulatedCostRate, err = decimal.NewFromString(cfg.UnregulatedCostRate); err != nil {
		return m, fmt.Errorf("FEE_UNREGULATED_COST_RATE: %w", err)
	}
	return m, nil
}

// Build connects every backing service. Optional integrations (redis,
// registry, document storage) are skipped when not configured.
func Build(ctx context.Context, cfg config.Config, log *logging.Logger) (*Deps, error) {
	if cfg.IsProduction() && strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required in production")
	}
	d := &Deps{Config: cfg, Log: log, checks: map[string]handlers.Checker{}}

	store, db, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	d.Store, d.db = store, db
	if db != nil {
		d.checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.redis = cache.NewCacheService(client, cfg.CacheTTL)
		if err := d.redis.HealthCheck(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		d.Cache = d.redis
		d.checks["redis"] = d.redis.HealthCheck
		log.WithField("addr", cfg.RedisAddr).Info("Redis connected")
	} else {
		log.Info("REDIS_ADDR not set, caching in process")
		d.Cache = cache.NewMemory()
	}

	model, err := FeeModel(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Calculator = calculator.New(model)

	d.Auth = auth.NewService(d.Store, d.Cache, auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.TokenTTL,
		RoleTTL:  cfg.CacheTTL,
	}, log)
	d.Linking = linking.NewService(d.Store, log)
	d.Bulk = bulk.NewService(d.Store, log)
	d.Team = team.NewService(d.Store, d.Auth, notification.NewService(cfg.MailFrom, log), log)

	sessionDeps := session.Deps{
		Store:      d.Store,
		Calculator: d.Calculator,
		Linker:     d.Linking,
	}
	if cfg.RegistryURL != "" {
		sessionDeps.Registry = registry.NewClient(registry.Config{
			BaseURL: cfg.RegistryURL,
			APIKey:  cfg.RegistryAPIKey,
			Timeout: cfg.RegistryTimeout,
		}, d.Cache, log)
	}
	if cfg.S3Bucket != "" {
		client, err := storage.NewS3Client(ctx, storage.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PublicURL:       cfg.S3PublicURL,
			PathStyle:       cfg.S3PathStyle,
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("document storage: %w", err)
		}
		sessionDeps.Documents = storage.NewDocuments(client, cfg.S3Bucket, cfg.S3PublicURL)
	}
	d.Sessions = session.NewManager(sessionDeps, session.Options{
		AutosaveDelay: cfg.AutosaveDelay,
		IdleTimeout:   cfg.SessionIdle,
		Logger:        log,
	})

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Warn("JWT_SECRET is empty; every authenticated request will be rejected")
	}
	return d, nil
}

func (d *Deps) AuthMiddleware() *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(d.Auth, d.Log)
}

func (d *Deps) Handlers() routes.Handlers {
	return routes.Handlers{
		Auth:       handlers.NewAuthHandler(d.Auth),
		Onboarding: handlers.NewOnboardingHandler(d.Sessions, d.Log),
		Calculator: handlers.NewCalculatorHandler(d.Calculator),
		Admin:      handlers.NewAdminHandler(d.Bulk, d.Linking, d.Team, d.Store, d.Log),
		Health:     handlers.NewHealthHandler(Version, d.checks),
	}
}

// Close releases database and redis connections.
func (d *Deps) Close() error {
	var errs error
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if d.db != nil {
		sqlDB, err := d.db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errs
}
