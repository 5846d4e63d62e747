package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/alexroche/boutique/internal/domain/product"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

type ProductsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ProductsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}

	return fn()
}

func (r *ProductsRepo) Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error) {
	p := product.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Images:      req.Images,
		CategoryID:  req.Category,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.observe("products.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO products (id, name, description, price, stock, images, category_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.Name, p.Description, p.Price, p.Stock, p.Images, p.CategoryID, p.CreatedAt,
		)

		return err
	})

	if err != nil {
		return product.Product{}, err
	}

	return p, nil
}

func (r *ProductsRepo) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product

	err := r.observe("products.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, price, stock, images, category_id, created_at
			 FROM products
			 ORDER BY created_at DESC, id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var p product.Product

			err = rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Images, &p.CategoryID, &p.CreatedAt)

			if err != nil {
				return err
			}

			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("products.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrProductNotFound
		}

		return nil
	})
}

// CountByCategory reports how many products reference a category. Used by
// category updates to tell the caller what the change touches.
func (r *ProductsRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int

	err := r.observe("products.count_by_category", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM products WHERE category_id = $1`,
			categoryID,
		).Scan(&count)
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}
