// Package boltstore is a catalog.Store kept in a single bbolt file. Producers
// and products are JSON documents keyed by their id; a nested bucket per
// producer indexes its products.
package boltstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/ib-77/cellarfeed/pkg/catalog"
)

var (
	bucketProducers          = []byte("producers")
	bucketProducts           = []byte("products")
	bucketProductsByProducer = []byte("producer_products")
)

type Store struct {
	db *bolt.DB
}

var _ catalog.Store = (*Store)(nil)

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketProducers, bucketProducts, bucketProductsByProducer} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.Wrapf(err, "creating bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing buckets")
	}

	return &Store{db: db}, nil
}

// InsertProducer goes through bolt's batch so concurrent imports share
// commits.
func (s *Store) InsertProducer(_ context.Context, p catalog.Producer) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding producer")
	}
	return s.db.Batch(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProducers).Put(p.ID[:], doc)
	})
}

func (s *Store) GetProducer(_ context.Context, id uuid.UUID) (catalog.Producer, error) {
	var p catalog.Producer
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketProducers), id, &p)
	})
	return p, err
}

func (s *Store) InsertProduct(_ context.Context, p catalog.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding product")
	}
	return s.db.Batch(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketProducts).Put(p.ID[:], doc); err != nil {
			return err
		}
		idx, err := tx.Bucket(bucketProductsByProducer).CreateBucketIfNotExists(p.ProducerID[:])
		if err != nil {
			return errors.Wrap(err, "creating producer index")
		}
		return idx.Put(p.ID[:], nil)
	})
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	var p catalog.Product
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketProducts), id, &p)
	})
	return p, err
}

func (s *Store) ProductsByProducer(_ context.Context, producerID uuid.UUID) ([]catalog.Product, error) {
	out := []catalog.Product{}
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketProductsByProducer).Bucket(producerID[:])
		if idx == nil {
			return nil
		}
		products := tx.Bucket(bucketProducts)
		return idx.ForEach(func(k, _ []byte) error {
			var p catalog.Product
			if err := json.Unmarshal(products.Get(k), &p); err != nil {
				return errors.Wrapf(err, "decoding product %x", k)
			}
			out = append(out, p)
			return nil
		})
	})
	return out, err
}

func (s *Store) UpdateProduct(_ context.Context, id uuid.UUID, u catalog.ProductUpdate) (catalog.Product, error) {
	var p catalog.Product
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		if err := get(b, id, &p); err != nil {
			return err
		}
		p = u.Apply(p)
		doc, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(err, "encoding product")
		}
		return b.Put(id[:], doc)
	})
	return p, err
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) (bool, error) {
	removed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		var p catalog.Product
		if err := get(b, id, &p); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := b.Delete(id[:]); err != nil {
			return err
		}
		if idx := tx.Bucket(bucketProductsByProducer).Bucket(p.ProducerID[:]); idx != nil {
			if err := idx.Delete(id[:]); err != nil {
				return err
			}
		}
		removed = true
		return nil
	})
	return removed, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func get(b *bolt.Bucket, id uuid.UUID, v interface{}) error {
	doc := b.Get(id[:])
	if doc == nil {
		return catalog.ErrNotFound
	}
	return errors.Wrapf(json.Unmarshal(doc, v), "decoding %s", id)
}
