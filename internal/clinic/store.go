package clinic

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrClinicNotFound = errors.New("clinic not found")

// Querier is the subset of pgxpool.Pool the store needs; it lets tests
// substitute pgxmock.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	pool Querier
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func NewPgStoreWithQuerier(q Querier) *PgStore {
	return &PgStore{pool: q}
}

// GetBySlug returns the active clinic with the given slug.
func (s *PgStore) GetBySlug(ctx context.Context, slug string) (*Clinic, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, active, created_at
		FROM clinics
		WHERE slug = $1 AND active = true
	`, slug)

	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}

	return &c, nil
}
