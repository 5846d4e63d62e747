package db

import (
	"context"
	"errors"
	"time"

	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/domain/user"
	"github.com/alexroche/boutique/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the bootstrap admin account when the config names
// one and no user with that email exists yet.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = lower($1)`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Firstname:    cfg.AdminName,
		Lastname:     cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		InvoiceAddress: user.InvoiceAddress{
			Line1:      "n/a",
			PostalCode: "00000",
			City:       "n/a",
			Country:    "n/a",
		},
		CreatedAt: time.Now().UTC(),
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, firstname, lastname, email, password_hash, role, invoice_address, created_at, last_login)
		 VALUES ($1, $2, $3, lower($4), $5, $6, $7, $8, $9)`,
		u.ID, u.Firstname, u.Lastname, u.Email, u.PasswordHash, u.Role, u.InvoiceAddress, u.CreatedAt, u.LastLogin,
	)

	return err
}
