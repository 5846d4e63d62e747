package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexroche/boutique/internal/db/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema migrations. Goose needs a
// database/sql handle, so it gets its own short-lived pgx stdlib connection
// instead of the pgxpool the repositories use.
func RunMigrations(ctx context.Context, dbURL string) error {
	conn, err := sql.Open("pgx", dbURL)

	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	defer conn.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
