package product

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id, name, price, image_url, alt_txt, colors, description`

func scanProduct(row pgx.Row) (*domain.ProductSnapshot, error) {
	var p domain.ProductSnapshot
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL, &p.AltText, &p.Colors, &p.Description); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.ProductSnapshot, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProductSnapshot
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.ProductSnapshot, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product repo: not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.ProductSnapshot) (*domain.ProductSnapshot, error) {
	const q = `
INSERT INTO products (id, name, price, image_url, alt_txt, colors, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    image_url = EXCLUDED.image_url,
    alt_txt = EXCLUDED.alt_txt,
    colors = EXCLUDED.colors,
    description = EXCLUDED.description,
    updated_at = now()
`
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return nil, ErrIDRequired
	}
	if product.Colors == nil {
		product.Colors = []string{}
	}
	_, err := r.pool.Exec(ctx, q,
		product.ID,
		product.Name,
		product.Price,
		product.ImageURL,
		product.AltText,
		product.Colors,
		product.Description,
	)
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("id", product.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("id", product.ID))
	return &product, nil
}
