package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ib-77/cellarfeed/pkg/feed"
	"github.com/ib-77/cellarfeed/pkg/rop/chain"
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// AddProducer inserts a new producer and returns it as stored.
func (s *Service) AddProducer(ctx context.Context, in ProducerInput) (Producer, error) {
	p := Producer{
		ID:      uuid.New(),
		Name:    in.Name,
		Country: optional(in.Country),
		Region:  optional(in.Region),
	}
	if err := s.store.InsertProducer(ctx, p); err != nil {
		return Producer{}, errors.Wrapf(err, "inserting producer %q", in.Name)
	}
	return s.RequireProducer(ctx, p.ID)
}

func (s *Service) GetProducer(ctx context.Context, id uuid.UUID) (Producer, bool, error) {
	p, err := s.store.GetProducer(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Producer{}, false, nil
	}
	if err != nil {
		return Producer{}, false, errors.Wrapf(err, "getting producer %s", id)
	}
	return p, true, nil
}

func (s *Service) RequireProducer(ctx context.Context, id uuid.UUID) (Producer, error) {
	p, ok, err := s.GetProducer(ctx, id)
	if err != nil {
		return Producer{}, err
	}
	if !ok {
		return Producer{}, errors.Wrapf(ErrNotFound, "producer %s", id)
	}
	return p, nil
}

// AddProduct inserts a product for an existing producer.
func (s *Service) AddProduct(ctx context.Context, in ProductInput) (Product, error) {
	if _, err := s.RequireProducer(ctx, in.ProducerID); err != nil {
		return Product{}, err
	}
	return s.addProduct(ctx, in)
}

func (s *Service) addProduct(ctx context.Context, in ProductInput) (Product, error) {
	p := Product{
		ID:         uuid.New(),
		Name:       in.Name,
		Vintage:    in.Vintage,
		ProducerID: in.ProducerID,
	}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return Product{}, errors.Wrapf(err, "inserting product %q", in.Name)
	}
	return s.RequireProduct(ctx, p.ID)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (Product, bool, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, errors.Wrapf(err, "getting product %s", id)
	}
	return p, true, nil
}

func (s *Service) RequireProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, ok, err := s.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, errors.Wrapf(ErrNotFound, "product %s", id)
	}
	return p, nil
}

func (s *Service) ProductsByProducer(ctx context.Context, producerID uuid.UUID) ([]Product, error) {
	products, err := s.store.ProductsByProducer(ctx, producerID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing products of producer %s", producerID)
	}
	return products, nil
}

// UpdateProduct applies u and returns the product after the change.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, u ProductUpdate) (Product, error) {
	p, err := s.store.UpdateProduct(ctx, id, u)
	if errors.Is(err, ErrNotFound) {
		return Product{}, errors.Wrapf(ErrNotFound, "product %s", id)
	}
	if err != nil {
		return Product{}, errors.Wrapf(err, "updating product %s", id)
	}
	return p, nil
}

// RemoveProduct deletes a product. Removing an unknown id is not an error.
func (s *Service) RemoveProduct(ctx context.Context, id uuid.UUID) error {
	removed, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "deleting product %s", id)
	}
	if !removed {
		s.logger.Debug("product to delete not found", zap.Stringer("product", id))
	}
	return nil
}

// ImportRecord stores one feed record as a new producer and a product
// referencing it. Empty country and region become absent. It returns after
// both writes, or with the error of the first one that failed.
func (s *Service) ImportRecord(ctx context.Context, rec feed.Record) error {
	producer := chain.ThenTry(chain.FromValue(ctx, rec), func(ctx context.Context, rec feed.Record) (Producer, error) {
		country, region := rec.Get(feed.ColCountry), rec.Get(feed.ColRegion)
		return s.AddProducer(ctx, ProducerInput{
			Name:    rec.Get(feed.ColProducer),
			Country: &country,
			Region:  &region,
		})
	})

	return chain.ThenTry(producer, func(ctx context.Context, p Producer) (Product, error) {
		return s.addProduct(ctx, ProductInput{
			Name:       rec.Get(feed.ColProductName),
			Vintage:    rec.Get(feed.ColVintage),
			ProducerID: p.ID,
		})
	}).Err()
}
