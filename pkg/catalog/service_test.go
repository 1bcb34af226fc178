package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/feed"
)

func newService() (*catalog.Service, *catalog.MemoryStore) {
	store := catalog.NewMemoryStore()
	return catalog.NewService(store, nil), store
}

func strp(s string) *string { return &s }

func TestService_AddProducerNormalisesEmptyFields(t *testing.T) {
	svc, _ := newService()

	p, err := svc.AddProducer(context.Background(), catalog.ProducerInput{
		Name:    "Cloudy Bay",
		Country: strp("New Zealand"),
		Region:  strp(""),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	require.NotNil(t, p.Country)
	assert.Equal(t, "New Zealand", *p.Country)
	assert.Nil(t, p.Region)
}

func TestService_AddProductRequiresProducer(t *testing.T) {
	svc, store := newService()

	_, err := svc.AddProduct(context.Background(), catalog.ProductInput{
		Name: "Sauvignon Blanc", Vintage: "2022", ProducerID: uuid.New(),
	})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, products := store.Counts()
	assert.Zero(t, products)
}

func TestService_ProductLifecycle(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	producer, err := svc.AddProducer(ctx, catalog.ProducerInput{Name: "Vega Sicilia"})
	require.NoError(t, err)

	p, err := svc.AddProduct(ctx, catalog.ProductInput{Name: "Unico", Vintage: "2011", ProducerID: producer.ID})
	require.NoError(t, err)

	got, ok, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)

	updated, err := svc.UpdateProduct(ctx, p.ID, catalog.ProductUpdate{Name: strp("Unico Reserva")})
	require.NoError(t, err)
	assert.Equal(t, "Unico Reserva", updated.Name)
	assert.Equal(t, "2011", updated.Vintage)

	list, err := svc.ProductsByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Product{updated}, list)

	require.NoError(t, svc.RemoveProduct(ctx, p.ID))
	_, ok, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// removing again is fine
	assert.NoError(t, svc.RemoveProduct(ctx, p.ID))
}

func TestService_UpdateMissingProduct(t *testing.T) {
	svc, _ := newService()

	_, err := svc.UpdateProduct(context.Background(), uuid.New(), catalog.ProductUpdate{Name: strp("x")})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestService_RequireMissing(t *testing.T) {
	svc, _ := newService()

	_, err := svc.RequireProducer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.RequireProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func record(fields map[string]string) feed.Record {
	row := map[string]string{}
	for _, c := range feed.Columns {
		row[c] = ""
	}
	for k, v := range fields {
		row[k] = v
	}
	return feed.NewRecord(2, row)
}

func TestService_ImportRecord(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	err := svc.ImportRecord(ctx, record(map[string]string{
		feed.ColVintage:     "2015",
		feed.ColProductName: "Château Margaux",
		feed.ColProducer:    "Château Margaux",
		feed.ColCountry:     "France",
	}))
	require.NoError(t, err)

	producers, products := store.Counts()
	assert.Equal(t, 1, producers)
	assert.Equal(t, 1, products)

	var producer catalog.Producer
	for _, p := range store.Producers() {
		producer = p
	}
	assert.Equal(t, "Château Margaux", producer.Name)
	require.NotNil(t, producer.Country)
	assert.Equal(t, "France", *producer.Country)
	assert.Nil(t, producer.Region)

	list, err := svc.ProductsByProducer(ctx, producer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Château Margaux", list[0].Name)
	assert.Equal(t, "2015", list[0].Vintage)
	assert.Equal(t, producer.ID, list[0].ProducerID)
}

func TestService_ImportRecordDuplicatesAreKept(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	rec := record(map[string]string{feed.ColProducer: "Penfolds", feed.ColProductName: "Grange"})

	require.NoError(t, svc.ImportRecord(ctx, rec))
	require.NoError(t, svc.ImportRecord(ctx, rec))

	producers, products := store.Counts()
	assert.Equal(t, 2, producers)
	assert.Equal(t, 2, products)
}

type failingStore struct {
	*catalog.MemoryStore
	err error
}

func (f failingStore) InsertProduct(context.Context, catalog.Product) error { return f.err }

func TestService_ImportRecordProductFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := failingStore{MemoryStore: catalog.NewMemoryStore(), err: boom}
	svc := catalog.NewService(store, nil)

	err := svc.ImportRecord(context.Background(), record(map[string]string{feed.ColProducer: "Krug"}))
	assert.ErrorIs(t, err, boom)

	// the producer write is not rolled back
	producers, products := store.Counts()
	assert.Equal(t, 1, producers)
	assert.Zero(t, products)
}

func TestService_ImportRecordCancelled(t *testing.T) {
	svc, store := newService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.ImportRecord(ctx, record(map[string]string{feed.ColProducer: "Krug"}))
	assert.ErrorIs(t, err, context.Canceled)

	producers, _ := store.Counts()
	assert.Zero(t, producers)
}
