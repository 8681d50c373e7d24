package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/catalog/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the policy id is unknown
//   - ErrAlreadyUsed when creating a duplicate id
//   - validate errors from Execute are returned unchanged

// InMemory stores policies keyed by id. Every read returns a copy.
type InMemory struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*models.Policy
}

func NewInMemory() *InMemory {
	return &InMemory{policies: make(map[id.PolicyID]*models.Policy)}
}

func (s *InMemory) Create(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[policy.ID]; exists {
		return fmt.Errorf("policy %s: %w", policy.ID, sentinel.ErrAlreadyUsed)
	}
	s.policies[policy.ID] = policy.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, policyID id.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", policyID, sentinel.ErrNotFound)
	}
	return p.Clone(), nil
}

// List returns policies in creation order. An empty status matches all.
func (s *InMemory) List(_ context.Context, status models.Status) ([]*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Execute runs validate then mutate on the stored policy under the write lock.
func (s *InMemory) Execute(_ context.Context, policyID id.PolicyID, validate func(*models.Policy) error, mutate func(*models.Policy)) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", policyID, sentinel.ErrNotFound)
	}
	working := p.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.policies[policyID] = working
	return working.Clone(), nil
}
