package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/governance/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the proposal id is unknown
//   - ErrAlreadyUsed when creating a duplicate id
//   - validate errors from Execute are returned unchanged
//
// Stored proposals are not settled; callers settle against their clock.

// InMemory stores proposals keyed by id.
type InMemory struct {
	mu        sync.RWMutex
	proposals map[id.ProposalID]*models.Proposal
}

func NewInMemory() *InMemory {
	return &InMemory{proposals: make(map[id.ProposalID]*models.Proposal)}
}

func (s *InMemory) Create(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[p.ID]; exists {
		return fmt.Errorf("proposal %s: %w", p.ID, sentinel.ErrAlreadyUsed)
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, sentinel.ErrNotFound)
	}
	return p.Clone(), nil
}

// List returns every proposal, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate) {
			return out[i].CreatedDate.After(out[j].CreatedDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Execute runs validate then mutate on the stored proposal under the write
// lock.
func (s *InMemory) Execute(_ context.Context, proposalID id.ProposalID, validate func(*models.Proposal) error, mutate func(*models.Proposal)) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, sentinel.ErrNotFound)
	}
	working := p.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.proposals[proposalID] = working
	return working.Clone(), nil
}
