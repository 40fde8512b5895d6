package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

// ApplyAtBoot prepares the schema before the API starts serving. A SQLite
// till is always auto-migrated from the models because the SQL migrations
// are Postgres DDL. Postgres runs "goose up" only in dev with the
// auto-migrate flag on; other environments migrate through cmd/migrate.
func ApplyAtBoot(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case client.Driver() == config.DBDriverSQLite:
		return AutoMigrateModels(ctx, logg, client)
	case !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate:
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	ctx = logg.WithField(ctx, "dir", DefaultDir)
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "version", version), "dev migrations applied")
	return nil
}

// AutoMigrateModels creates or updates tables straight from the GORM models.
func AutoMigrateModels(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"driver": client.Driver(), "tables": len(models.All())}), "schema auto-migrated")
	}
	return nil
}
