package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexroche/boutique/internal/domain/user"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}

	return fn()
}

const userColumns = `id, firstname, lastname, email, password_hash, role, invoice_address, created_at, last_login`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Firstname,
		&u.Lastname,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.InvoiceAddress,
		&u.CreatedAt,
		&u.LastLogin,
	)

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, firstname, lastname, email, password_hash, role, invoice_address, created_at, last_login)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.Firstname, u.Lastname, u.Email, u.PasswordHash, u.Role, u.InvoiceAddress, u.CreatedAt, u.LastLogin,
		)

		return err
	})

	if isUniqueViolation(err) {
		return ErrEmailTaken
	}

	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error

		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = lower($1)`,
			email,
		))

		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error

		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))

		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// List returns every user. The password hash column is deliberately not part
// of the projection; listing never touches the credential.
func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, firstname, lastname, email, role, invoice_address, created_at, last_login
			 FROM users
			 ORDER BY created_at ASC, id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var u user.User

			err = rows.Scan(
				&u.ID,
				&u.Firstname,
				&u.Lastname,
				&u.Email,
				&u.Role,
				&u.InvoiceAddress,
				&u.CreatedAt,
				&u.LastLogin,
			)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// UpdateProfile applies a partial update and returns the new row.
// Record-level last-write-wins; no optimistic concurrency token.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
	var sets []string
	var args []interface{}

	argsPosition := 1

	if edit.Firstname != nil {
		sets = append(sets, fmt.Sprintf("firstname = $%d", argsPosition))
		args = append(args, *edit.Firstname)
		argsPosition++
	}

	if edit.Lastname != nil {
		sets = append(sets, fmt.Sprintf("lastname = $%d", argsPosition))
		args = append(args, *edit.Lastname)
		argsPosition++
	}

	if edit.Email != nil {
		sets = append(sets, fmt.Sprintf("email = lower($%d)", argsPosition))
		args = append(args, *edit.Email)
		argsPosition++
	}

	if edit.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, *edit.Role)
		argsPosition++
	}

	if edit.InvoiceAddress != nil {
		sets = append(sets, fmt.Sprintf("invoice_address = $%d", argsPosition))
		args = append(args, *edit.InvoiceAddress)
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), argsPosition,
	)

	args = append(args, id)

	var u user.User

	err := r.observe("users.update_profile", func() error {
		var err error

		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))

		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}

	if isUniqueViolation(err) {
		return user.User{}, ErrEmailTaken
	}

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.observe("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $1 WHERE id = $2`,
			passwordHash, id,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.observe("users.touch_last_login", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users SET last_login = $1 WHERE id = $2`,
			at, id,
		)

		return err
	})
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
