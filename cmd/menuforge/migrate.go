package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/Strob0t/MenuForge/internal/adapter/postgres"
	"github.com/Strob0t/MenuForge/internal/config"
)

// runMigrate handles migrate up | down [n] | version.
func runMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: menuforge migrate up|down [n]|version")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	dsn := cfg.Postgres.DSN

	switch args[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, dsn); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
		}
		if err := postgres.RollbackMigrations(ctx, dsn, steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}

	version, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "schema version %d\n", version)
	return nil
}
