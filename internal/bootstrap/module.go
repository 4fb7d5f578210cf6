package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"auditflow/internal/bootstrap/config"
	"auditflow/internal/bootstrap/database"
	"auditflow/internal/bootstrap/logging"
	"auditflow/internal/infrastructure/formcatalog"
	"auditflow/internal/infrastructure/notify"
	sqliterepo "auditflow/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "auditflow/internal/infrastructure/persistence/sqlite/uow"
	"auditflow/internal/ports"
	"auditflow/internal/usecase/audit"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSampleRepository,
			fx.As(new(ports.SampleRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideUserDirectory),
	fx.Provide(provideFormCatalog),
	fx.Provide(provideNotifier),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

type userDirectoryOut struct {
	fx.Out

	Directory ports.IdentityDirectory
	Admin     ports.UserAdmin
}

func provideUserDirectory(db *gorm.DB) userDirectoryOut {
	directory := sqliterepo.NewUserDirectory(db)
	return userDirectoryOut{
		Directory: directory,
		Admin:     directory,
	}
}

func provideFormCatalog(cfg config.Config) ports.FormCatalog {
	return formcatalog.NewYAMLCatalog(cfg.Forms.Dir)
}

func provideNotifier(lc fx.Lifecycle, cfg config.Config) (ports.Notifier, error) {
	if cfg.Events.Driver != "nats" {
		return notify.NewLogNotifier(), nil
	}

	notifier, err := notify.NewNATSNotifier(cfg.Events.NATSURL)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			notifier.Close()
			return nil
		},
	})
	return notifier, nil
}

func provideService(
	repo ports.SampleRepository,
	uow ports.UnitOfWork,
	directory ports.IdentityDirectory,
	forms ports.FormCatalog,
	notifier ports.Notifier,
	cfg config.Config,
) *audit.Service {
	return audit.NewService(repo, uow, directory, forms, notifier, audit.Options{
		PurgeDraftOnComplete: cfg.Lifecycle.PurgeDraftOnComplete,
	})
}
