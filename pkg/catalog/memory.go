package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in maps. It backs tests and the "memory"
// store driver.
type MemoryStore struct {
	mu         sync.RWMutex
	producers  map[uuid.UUID]Producer
	products   map[uuid.UUID]Product
	byProducer map[uuid.UUID][]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		producers:  make(map[uuid.UUID]Producer),
		products:   make(map[uuid.UUID]Product),
		byProducer: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MemoryStore) InsertProducer(_ context.Context, p Producer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProducer(_ context.Context, id uuid.UUID) (Producer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.producers[id]
	if !ok {
		return Producer{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) InsertProduct(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		m.byProducer[p.ProducerID] = append(m.byProducer[p.ProducerID], p.ID)
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id uuid.UUID) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ProductsByProducer(_ context.Context, producerID uuid.UUID) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.byProducer[producerID]))
	for _, id := range m.byProducer[producerID] {
		out = append(out, m.products[id])
	}
	return out, nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, id uuid.UUID, u ProductUpdate) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	p = u.Apply(p)
	m.products[id] = p
	return p, nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return false, nil
	}
	delete(m.products, id)

	ids := m.byProducer[p.ProducerID]
	for i, pid := range ids {
		if pid == id {
			m.byProducer[p.ProducerID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

// Counts returns the number of stored producers and products.
func (m *MemoryStore) Counts() (producers, products int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.producers), len(m.products)
}

// Producers returns a snapshot of every stored producer.
func (m *MemoryStore) Producers() []Producer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Producer, 0, len(m.producers))
	for _, p := range m.producers {
		out = append(out, p)
	}
	return out
}

func (m *MemoryStore) Close() error {
	return nil
}
