package memory

import (
	"context"
	"sync"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/storage"
)

// DatasetStore is an in-memory implementation of storage.DatasetStore.
type DatasetStore struct {
	mu   sync.RWMutex
	data map[string]*dataset.Table // keyed by DatasetKey.String()
}

// NewDatasetStore creates a new in-memory dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		data: make(map[string]*dataset.Table),
	}
}

// Get retrieves the table stored under key. Returns ErrNotFound if not exists.
func (s *DatasetStore) Get(_ context.Context, key storage.DatasetKey) (*dataset.Table, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[key.String()]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return t.Clone(), nil
}

// Put stores the table under key, replacing any previous version.
func (s *DatasetStore) Put(_ context.Context, key storage.DatasetKey, table *dataset.Table) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if table == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key.String()] = table.Clone()
	return nil
}

var _ storage.DatasetStore = (*DatasetStore)(nil)
