package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/claims/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the claim id is unknown
//   - ErrAlreadyUsed when creating a duplicate id
//   - validate errors from Execute are returned unchanged

// InMemory stores claims keyed by id.
type InMemory struct {
	mu     sync.RWMutex
	claims map[id.ClaimID]*models.Claim
}

func NewInMemory() *InMemory {
	return &InMemory{claims: make(map[id.ClaimID]*models.Claim)}
}

func (s *InMemory) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[claim.ID]; exists {
		return fmt.Errorf("claim %s: %w", claim.ID, sentinel.ErrAlreadyUsed)
	}
	s.claims[claim.ID] = claim.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	return claim.Clone(), nil
}

// List returns claims matching status, oldest first. An empty status matches
// every claim.
func (s *InMemory) List(_ context.Context, status models.Status) ([]*models.Claim, error) {
	return s.filter(func(c *models.Claim) bool {
		return status == "" || c.Status == status
	}), nil
}

func (s *InMemory) ListByClaimer(_ context.Context, claimer id.Address) ([]*models.Claim, error) {
	return s.filter(func(c *models.Claim) bool { return c.Claimer == claimer }), nil
}

func (s *InMemory) ListBySubscription(_ context.Context, subID id.SubscriptionID) ([]*models.Claim, error) {
	return s.filter(func(c *models.Claim) bool { return c.SubscriptionID == subID }), nil
}

func (s *InMemory) filter(match func(*models.Claim) bool) []*models.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Claim, 0)
	for _, c := range s.claims {
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmissionDate.Equal(out[j].SubmissionDate) {
			return out[i].SubmissionDate.Before(out[j].SubmissionDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Execute runs validate then mutate on the stored claim under the write lock.
func (s *InMemory) Execute(_ context.Context, claimID id.ClaimID, validate func(*models.Claim) error, mutate func(*models.Claim)) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	working := claim.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.claims[claimID] = working
	return working.Clone(), nil
}
