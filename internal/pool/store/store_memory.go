package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/pool/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when an investment id is unknown
//   - ErrAlreadyUsed when creating a duplicate investment id
//   - validate errors from Execute and ExecuteInvestment are returned unchanged

// InMemory holds the singleton pool and the investment book.
type InMemory struct {
	mu          sync.RWMutex
	pool        *models.SafetyPool
	investments map[id.InvestmentID]*models.Investment
}

func NewInMemory(pool *models.SafetyPool) *InMemory {
	return &InMemory{
		pool:        pool.Clone(),
		investments: make(map[id.InvestmentID]*models.Investment),
	}
}

// Snapshot returns a copy of the pool.
func (s *InMemory) Snapshot(_ context.Context) (*models.SafetyPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Clone(), nil
}

// Execute runs validate then mutate on the pool under the write lock.
func (s *InMemory) Execute(_ context.Context, validate func(*models.SafetyPool) error, mutate func(*models.SafetyPool)) (*models.SafetyPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.pool.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.pool = working
	return working.Clone(), nil
}

func (s *InMemory) CreateInvestment(_ context.Context, inv *models.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.investments[inv.ID]; exists {
		return fmt.Errorf("investment %s: %w", inv.ID, sentinel.ErrAlreadyUsed)
	}
	s.investments[inv.ID] = inv.Clone()
	return nil
}

func (s *InMemory) FindInvestment(_ context.Context, invID id.InvestmentID) (*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investments[invID]
	if !ok {
		return nil, fmt.Errorf("investment %s: %w", invID, sentinel.ErrNotFound)
	}
	return inv.Clone(), nil
}

// ListInvestments returns an investor's investments, oldest first. An empty
// investor lists all.
func (s *InMemory) ListInvestments(_ context.Context, investor id.Address) ([]*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Investment, 0)
	for _, inv := range s.investments {
		if investor.IsNil() || inv.Investor == investor {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepositedAt.Equal(out[j].DepositedAt) {
			return out[i].DepositedAt.Before(out[j].DepositedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) ExecuteInvestment(_ context.Context, invID id.InvestmentID, validate func(*models.Investment) error, mutate func(*models.Investment)) (*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.investments[invID]
	if !ok {
		return nil, fmt.Errorf("investment %s: %w", invID, sentinel.ErrNotFound)
	}
	working := inv.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.investments[invID] = working
	return working.Clone(), nil
}
