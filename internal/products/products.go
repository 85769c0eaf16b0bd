package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-service/internal/apperr"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// FindProductsByIDs resolves catalog entries for the given ids, keyed by id.
// Missing ids are simply absent from the result; the caller decides whether
// that is an error.
func (c *Conf) FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}

	query := `
		SELECT id, name, price, partner_id, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`
	rows, err := c.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "querying products")
	}
	defer rows.Close()

	found := make(map[int64]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.PartnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scanning product")
		}
		found[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "iterating products")
	}
	return found, nil
}

// GetProductByID fetches a single product.
func (c *Conf) GetProductByID(ctx context.Context, id int64) (Product, error) {
	query := `
		SELECT id, name, price, partner_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var p Product
	err := c.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price,
		&p.PartnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, apperr.New(apperr.KindNotFound, "product %d not found", id)
		}
		return Product{}, apperr.Wrap(apperr.KindInternal, err, "querying product %d", id)
	}
	return p, nil
}

// ListProducts returns a page of the catalog ordered by name.
func (c *Conf) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	query := `
		SELECT id, name, price, partner_id, created_at, updated_at
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "listing products")
	}
	defer rows.Close()

	var list []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.PartnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scanning product")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "iterating products")
	}
	return list, nil
}
