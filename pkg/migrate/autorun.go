package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot in dev when
// STOREFRONT_AUTO_MIGRATE is set. Other environments run cmd/migrate as a
// release step instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	before, err := Version(sqlDB)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	after, err := Version(sqlDB)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"from_version": before, "to_version": after})
	if before == after {
		logg.Info(ctx, "schema already current")
		return nil
	}
	logg.Info(ctx, "schema migrated")
	return nil
}
