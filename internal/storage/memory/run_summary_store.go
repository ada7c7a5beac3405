package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/storage"
)

// RunSummaryStore is an in-memory implementation of storage.RunSummaryStore.
type RunSummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunSummary // keyed by (symbol, month, strategy_id)
}

// NewRunSummaryStore creates a new in-memory run summary store.
func NewRunSummaryStore() *RunSummaryStore {
	return &RunSummaryStore{
		data: make(map[string]*domain.RunSummary),
	}
}

func summaryKey(symbol, month, strategyID string) string {
	return fmt.Sprintf("%s|%s|%s", symbol, month, strategyID)
}

// Insert adds a new summary. Returns ErrDuplicateKey if the key exists.
func (s *RunSummaryStore) Insert(_ context.Context, sum *domain.RunSummary) error {
	if sum == nil || sum.Symbol == "" || sum.Month == "" || sum.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := summaryKey(sum.Symbol, sum.Month, sum.StrategyID)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *sum
	s.data[key] = &copy
	return nil
}

// GetByKey retrieves a summary by its composite key. Returns ErrNotFound if not exists.
func (s *RunSummaryStore) GetByKey(_ context.Context, symbol, month, strategyID string) (*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.data[summaryKey(symbol, month, strategyID)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *sum
	return &copy, nil
}

// GetBySymbol retrieves all summaries for a symbol.
func (s *RunSummaryStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunSummary
	for _, sum := range s.data {
		if sum.Symbol == symbol {
			copy := *sum
			result = append(result, &copy)
		}
	}

	sortSummaries(result)
	return result, nil
}

// GetAll retrieves all summaries.
func (s *RunSummaryStore) GetAll(_ context.Context) ([]*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunSummary, 0, len(s.data))
	for _, sum := range s.data {
		copy := *sum
		result = append(result, &copy)
	}

	sortSummaries(result)
	return result, nil
}

func sortSummaries(sums []*domain.RunSummary) {
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].Symbol != sums[j].Symbol {
			return sums[i].Symbol < sums[j].Symbol
		}
		if sums[i].Month != sums[j].Month {
			return sums[i].Month < sums[j].Month
		}
		return sums[i].StrategyID < sums[j].StrategyID
	})
}

var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)
