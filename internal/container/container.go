// Package container builds the process-wide collaborators once at startup
// and hands them to the router.
package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/config"
	"github.com/oksasatya/supabase-auth-api/internal/application"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	pginfra "github.com/oksasatya/supabase-auth-api/internal/infrastructure/postgres"
	"github.com/oksasatya/supabase-auth-api/internal/infrastructure/redisstore"
	"github.com/oksasatya/supabase-auth-api/internal/infrastructure/supabase"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Supabase *supabase.Client

	// Optional, nil when not configured.
	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher

	service *application.Service
}

// New connects every configured collaborator. Optional ones are skipped when
// their settings are empty; a configured one that cannot be reached is an
// error.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	sb, err := supabase.NewClient(supabase.Config{
		URL:        cfg.SupabaseURL,
		Key:        cfg.SupabaseKey,
		UsersTable: cfg.SupabaseUsersTable,
		Timeout:    cfg.SupabaseHTTPTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Supabase: sb}

	if cfg.NeedsDatabase() {
		pool, err := pginfra.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.PGPool = pool
	}

	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.Redis = rdb
	}

	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		c.RabbitPub = pub
	}
	return c, nil
}

// Users returns the record store selected by RECORD_STORE.
func (c *Container) Users() repo.UserRepository {
	if c.Config.RecordStore == config.RecordStorePostgres && c.PGPool != nil {
		return pginfra.NewUserRepository(c.PGPool, c.Config.SupabaseUsersTable)
	}
	return c.Supabase.Users()
}

// Audit returns nil when audit logging is off or there is no database.
func (c *Container) Audit() repo.AuditRepository {
	if !c.Config.AuditLogEnabled || c.PGPool == nil {
		return nil
	}
	return pginfra.NewAuditRepository(c.PGPool)
}

// Orphans returns nil without Redis.
func (c *Container) Orphans() repo.OrphanRepository {
	if c.Redis == nil {
		return nil
	}
	return redisstore.NewOrphanLedger(c.Redis, redisstore.DefaultOrphanKey)
}

// Publisher returns nil when email publishing is off.
func (c *Container) Publisher() helpers.JSONPublisher {
	if c.RabbitPub == nil {
		return nil
	}
	return c.RabbitPub
}

// AuthService is built on first use and shared afterwards.
func (c *Container) AuthService() *application.Service {
	if c.service == nil {
		c.service = application.NewService(
			c.Supabase.Auth(),
			c.Users(),
			c.Orphans(),
			helpers.NewTokenInspector(c.Config.SupabaseJWTSecret),
			c.Config.WritableFields(),
			c.Logger,
		)
	}
	return c.service
}

func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
