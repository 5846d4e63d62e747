package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/alexroche/boutique/internal/domain/category"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *CategoriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}

	return fn()
}

func (r *CategoriesRepo) Create(ctx context.Context, req category.UpsertCategoryRequest) (category.Category, error) {
	c := category.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.observe("categories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO categories (id, name, description, created_at)
			 VALUES ($1, $2, $3, $4)`,
			c.ID, c.Name, c.Description, c.CreatedAt,
		)

		return err
	})

	if err != nil {
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	var out []category.Category

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, created_at
			 FROM categories
			 ORDER BY name ASC, id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c category.Category

			err = rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)

			if err != nil {
				return err
			}

			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, description, created_at FROM categories WHERE id = $1`,
			id,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return category.Category{}, ErrCategoryNotFound
	}

	if err != nil {
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req category.UpsertCategoryRequest) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE categories SET name = $1, description = $2 WHERE id = $3
			 RETURNING id, name, description, created_at`,
			req.Name, req.Description, id,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return category.Category{}, ErrCategoryNotFound
	}

	if err != nil {
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	return r.observe("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrCategoryNotFound
		}

		return nil
	})
}
