package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver

	"github.com/target/checkqueue/internal/migrate"
)

type migrateOptions struct {
	action  string
	steps   int
	timeout time.Duration
	yes     bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	if len(args) == 0 {
		return migrateOptions{}, errors.New("migrate requires an action: up, down or version")
	}
	opts := migrateOptions{action: args[0]}
	switch opts.action {
	case "up", "down", "version":
	default:
		return migrateOptions{}, fmt.Errorf("unknown migrate action %q", opts.action)
	}

	fs := flag.NewFlagSet("migrate "+opts.action, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&opts.steps, "steps", 1, "number of migrations to roll back (0 rolls back all)")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	fs.BoolVar(&opts.yes, "yes", false, "skip confirmation")
	if err := fs.Parse(args[1:]); err != nil {
		return migrateOptions{}, fmt.Errorf("parse migrate flags: %w", err)
	}
	if opts.steps < 0 {
		return migrateOptions{}, errors.New("--steps must be >= 0")
	}
	if opts.timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	if opts.action == "down" {
		what := fmt.Sprintf("Rolling back %d migration(s) on %s.", opts.steps, cmdCtx.Config.Postgres.Host)
		if opts.steps == 0 {
			what = "Rolling back ALL migrations on " + cmdCtx.Config.Postgres.Host + "."
		}
		if err := cmdCtx.confirm(opts.yes, what); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.timeout)
	defer cancel()

	// The migrator closes the handle it is given.
	db, err := sql.Open("pgx", cmdCtx.Config.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open migrations db: %w", err)
	}

	switch opts.action {
	case "up":
		if err := migrate.Run(ctx, db); err != nil {
			return err
		}
		return writeln(cmdCtx.Stdout, "migrations applied")
	case "down":
		if err := migrate.Down(ctx, db, opts.steps); err != nil {
			return err
		}
		return writeln(cmdCtx.Stdout, "migrations rolled back")
	default:
		v, err := migrate.CurrentVersion(ctx, db)
		if err != nil {
			return err
		}
		return writeln(cmdCtx.Stdout, formatVersion(v))
	}
}

func formatVersion(v migrate.Version) string {
	if v.None {
		return "no migrations applied"
	}
	if v.Dirty {
		return fmt.Sprintf("version %d (dirty)", v.Version)
	}
	return fmt.Sprintf("version %d", v.Version)
}
