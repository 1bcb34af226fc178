// Package pgstore is a catalog.Store on PostgreSQL through a pgx pool.
package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/ib-77/cellarfeed/pkg/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS producers (
  id uuid PRIMARY KEY,
  name text NOT NULL,
  country text,
  region text
);
CREATE TABLE IF NOT EXISTS products (
  id uuid PRIMARY KEY,
  name text NOT NULL,
  vintage text NOT NULL,
  producer_id uuid NOT NULL REFERENCES producers (id)
);
CREATE INDEX IF NOT EXISTS products_producer_id_idx ON products (producer_id);
`

type Store struct {
	pool *pgxpool.Pool
}

var _ catalog.Store = (*Store)(nil)

// Open connects to dsn and creates the tables if they are missing. maxConns
// of zero keeps the pool default.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parsing dsn")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "connecting")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ensuring schema")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) InsertProducer(ctx context.Context, p catalog.Producer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO producers (id, name, country, region) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Country, p.Region)
	return err
}

func (s *Store) GetProducer(ctx context.Context, id uuid.UUID) (catalog.Producer, error) {
	var p catalog.Producer
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, country, region FROM producers WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Country, &p.Region)
	return p, notFound(err)
}

func (s *Store) InsertProduct(ctx context.Context, p catalog.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, name, vintage, producer_id) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Vintage, p.ProducerID)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	var p catalog.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, vintage, producer_id FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Vintage, &p.ProducerID)
	return p, notFound(err)
}

func (s *Store) ProductsByProducer(ctx context.Context, producerID uuid.UUID) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, vintage, producer_id FROM products WHERE producer_id = $1`, producerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Product{}
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Vintage, &p.ProducerID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, u catalog.ProductUpdate) (catalog.Product, error) {
	var p catalog.Product
	err := s.pool.QueryRow(ctx, `
UPDATE products SET name = COALESCE($2, name), vintage = COALESCE($3, vintage)
WHERE id = $1
RETURNING id, name, vintage, producer_id`, id, u.Name, u.Vintage).
		Scan(&p.ID, &p.Name, &p.Vintage, &p.ProducerID)
	return p, notFound(err)
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrNotFound
	}
	return err
}
