package data

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver

	"github.com/target/checkqueue/internal/migrate"
)

// RunMigrations applies the schema through a dedicated connection opened from dsn.
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migrations db: %w", err)
	}
	return migrate.Run(ctx, db)
}
