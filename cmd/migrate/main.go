package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir path] <command> [arg]

commands:
  up                 apply every pending migration
  down               roll back the latest migration
  redo               roll back and reapply the latest migration
  status             print applied and pending migrations
  to <version>       move the schema to YYYYMMDDHHMMSS
  create <name>      write a new SQL migration (defaults to the source dir)
  validate           check file names and up/down sections

Without -dir the migrations compiled into the binary are used.`

var errUsage = errors.New("invalid usage")

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory on disk")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if err := run(context.Background(), logg, *dir, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		logg.Error(context.Background(), "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, dir string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	command, arg := args[0], ""
	if len(args) > 1 {
		arg = args[1]
	}

	// create and validate work on files only.
	switch command {
	case "create":
		if arg == "" {
			return fmt.Errorf("%w: create needs a name", errUsage)
		}
		if dir == "" {
			dir = migrate.SourceDir
		}
		path, err := migrate.CreateSQLMigration(dir, arg, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": command})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	switch command {
	case "up", "down", "redo", "status":
		err = migrate.Run(ctx, sqlDB, dir, command)
	case "to":
		if arg == "" {
			return fmt.Errorf("%w: to needs a version", errUsage)
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dir, arg)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	if err != nil {
		return err
	}

	version, err := migrate.Version(sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "migrate finished")
	return nil
}
