package partners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-service/internal/apperr"
)

// Partner is a fulfillment partner. Phone is in international format and
// feeds the wa.me delivery link built by the notification dispatcher.
type Partner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) GetPartnerByID(ctx context.Context, id int64) (Partner, error) {
	query := `
		SELECT id, name, phone, created_at, updated_at
		FROM partners
		WHERE id = $1
	`
	var p Partner
	err := c.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Partner{}, apperr.New(apperr.KindNotFound, "partner %d not found", id)
		}
		return Partner{}, apperr.Wrap(apperr.KindInternal, err, "querying partner %d", id)
	}
	return p, nil
}
