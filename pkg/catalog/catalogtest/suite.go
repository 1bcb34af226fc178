// Package catalogtest holds behaviour checks every catalog.Store must pass.
package catalogtest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/cellarfeed/pkg/catalog"
)

// RunStoreSuite runs the store checks against stores built by open. Each
// subtest gets its own store.
func RunStoreSuite(t *testing.T, open func(t *testing.T) catalog.Store) {
	t.Run("ProducerRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		country := "France"
		p := catalog.Producer{ID: uuid.New(), Name: "Domaine Leflaive", Country: &country}
		require.NoError(t, s.InsertProducer(ctx, p))

		got, err := s.GetProducer(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Nil(t, got.Region)
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		_, err := s.GetProducer(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = s.GetProduct(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = s.UpdateProduct(ctx, uuid.New(), catalog.ProductUpdate{})
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		removed, err := s.DeleteProduct(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("ProductsByProducer", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		a, b := seedProducer(t, s), seedProducer(t, s)
		pa1 := seedProduct(t, s, a, "Puligny-Montrachet")
		pa2 := seedProduct(t, s, a, "Meursault")
		seedProduct(t, s, b, "Chablis")

		got, err := s.ProductsByProducer(ctx, a)
		require.NoError(t, err)
		assert.ElementsMatch(t, []catalog.Product{pa1, pa2}, got)

		none, err := s.ProductsByProducer(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateProduct", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := seedProduct(t, s, seedProducer(t, s), "Barolo")
		vintage := "2016"
		got, err := s.UpdateProduct(ctx, p.ID, catalog.ProductUpdate{Vintage: &vintage})
		require.NoError(t, err)
		assert.Equal(t, "Barolo", got.Name)
		assert.Equal(t, "2016", got.Vintage)

		stored, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("DeleteProduct", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		producer := seedProducer(t, s)
		p := seedProduct(t, s, producer, "Rioja")

		removed, err := s.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = s.GetProduct(ctx, p.ID)
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		left, err := s.ProductsByProducer(ctx, producer)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("ConcurrentInserts", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		producer := seedProducer(t, s)

		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.InsertProduct(ctx, catalog.Product{
					ID: uuid.New(), Name: "Cava", Vintage: "NV", ProducerID: producer,
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.ProductsByProducer(ctx, producer)
		require.NoError(t, err)
		assert.Len(t, got, 50)
	})
}

func seedProducer(t *testing.T, s catalog.Store) uuid.UUID {
	t.Helper()
	p := catalog.Producer{ID: uuid.New(), Name: "producer " + uuid.NewString()[:8]}
	require.NoError(t, s.InsertProducer(context.Background(), p))
	return p.ID
}

func seedProduct(t *testing.T, s catalog.Store, producer uuid.UUID, name string) catalog.Product {
	t.Helper()
	p := catalog.Product{ID: uuid.New(), Name: name, Vintage: "2019", ProducerID: producer}
	require.NoError(t, s.InsertProduct(context.Background(), p))
	return p
}
