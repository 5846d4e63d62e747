package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/alexroche/boutique/internal/domain/contact"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrContactNotFound = errors.New("contact message not found")

type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ContactsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}

	return fn()
}

func (r *ContactsRepo) Create(ctx context.Context, req contact.CreateMessageRequest) (contact.Message, error) {
	m := contact.Message{
		ID:        uuid.NewString(),
		Fullname:  req.Fullname,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}

	err := r.observe("contacts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO contacts (id, fullname, email, phone, subject, message, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, m.Fullname, m.Email, m.Phone, m.Subject, m.Body, m.CreatedAt,
		)

		return err
	})

	if err != nil {
		return contact.Message{}, err
	}

	return m, nil
}

func (r *ContactsRepo) List(ctx context.Context) ([]contact.Message, error) {
	var out []contact.Message

	err := r.observe("contacts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, fullname, email, phone, subject, message, created_at
			 FROM contacts
			 ORDER BY created_at DESC, id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var m contact.Message

			err = rows.Scan(&m.ID, &m.Fullname, &m.Email, &m.Phone, &m.Subject, &m.Body, &m.CreatedAt)

			if err != nil {
				return err
			}

			out = append(out, m)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("contacts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrContactNotFound
		}

		return nil
	})
}
