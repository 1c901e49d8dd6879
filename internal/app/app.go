// Package app wires configuration, storage and remote clients into the usecases
// shared by the API server and the jobs CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lendcore/internal/adapter/docgen"
	"lendcore/internal/adapter/nls"
	"lendcore/internal/adapter/notify"
	"lendcore/internal/adapter/repository/mysql"
	"lendcore/internal/config"
	"lendcore/internal/infrastructure/cache"
	"lendcore/internal/infrastructure/crypto"
	"lendcore/internal/infrastructure/db"
	"lendcore/internal/usecase/batch"
	ucFacility "lendcore/internal/usecase/facility"
	"lendcore/internal/usecase/servicingsync"
	"lendcore/internal/usecase/statement"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Facilities *ucFacility.Usecase
	Sync       *servicingsync.Engine
	Statements *statement.Generator
	Jobs       *batch.Runner
}

// New opens MySQL (migrating the schema) and Redis, then builds every usecase.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("open redis: %w", err)
	}

	key := cfg.BankDetailsKey
	if key == "" {
		// Validate only allows this in development; sealed values will not survive a restart.
		log.Warn("BANK_DETAILS_KEY unset, using an ephemeral key")
		if key, err = crypto.GenerateKey(); err != nil {
			return nil, err
		}
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("bank details key: %w", err)
	}

	facilities := mysql.NewFacilityRepository(gdb)
	statements := mysql.NewStatementRepository(gdb)
	reports := mysql.NewJobReportRepository(gdb)
	orig := mysql.NewOriginationRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	gateway := nls.New(cfg.NLS, log.Named("nls"))
	docs := docgen.New(cfg.DocGen, log.Named("docgen"))
	notifier := notify.NewWebhook(cfg.Notify.WebhookURL, log.Named("notify"))

	engine := servicingsync.NewEngine(gateway, tx, log.Named("sync"))
	generator := statement.NewGenerator(statements, orig, tx, gateway, docs, cfg.DocGen, cfg.CustomerService, log.Named("statement"))

	return &App{
		Config: cfg,
		Log:    log,
		DB:     gdb,
		Redis:  rdb,
		Facilities: ucFacility.NewUsecase(ucFacility.Deps{
			Facilities:    facilities,
			Origination:   orig,
			UoW:           tx,
			Gateway:       gateway,
			Syncer:        engine,
			Notifier:      notifier,
			Sealer:        sealer,
			Log:           log.Named("facility"),
			Environment:   cfg.AppEnv,
			NotifyChannel: cfg.Notify.Channel,
		}),
		Sync:       engine,
		Statements: generator,
		Jobs: batch.NewRunner(facilities, reports, engine, generator, notifier,
			cache.NewJobLock(rdb, cfg.JobLockTTL()),
			batch.Options{Environment: cfg.AppEnv, Channel: cfg.Notify.JobChannel, SyncDelay: cfg.SyncDelay()},
			log.Named("batch")),
	}, nil
}

// PingDB reports whether the MySQL pool answers.
func (a *App) PingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) PingRedis(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }

func (a *App) Close() error {
	var errs []error
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	errs = append(errs, a.Redis.Close())
	_ = a.Log.Sync()
	return errors.Join(errs...)
}
