package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the address is not registered
//   - ErrAlreadyUsed when creating an address that already exists
//   - validate errors from Execute are returned unchanged

// InMemory stores users keyed by address. Every read returns a copy.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.Address]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.Address]*models.User)}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Address]; exists {
		return fmt.Errorf("user %s: %w", user.Address, sentinel.ErrAlreadyUsed)
	}
	s.users[user.Address] = user.Clone()
	return nil
}

func (s *InMemory) FindByAddress(_ context.Context, addr id.Address) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[addr]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", addr, sentinel.ErrNotFound)
	}
	return u.Clone(), nil
}

// List returns all users ordered by join date, then address.
func (s *InMemory) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinDate.Equal(out[j].JoinDate) {
			return out[i].JoinDate.Before(out[j].JoinDate)
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

// CountVotingMembers counts active DAO members.
func (s *InMemory) CountVotingMembers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.IsVotingMember() {
			n++
		}
	}
	return n, nil
}

// ListVotingMembers returns the addresses of active DAO members in address
// order.
func (s *InMemory) ListVotingMembers(_ context.Context) ([]id.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Address, 0)
	for _, u := range s.users {
		if u.IsVotingMember() {
			out = append(out, u.Address)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Execute runs validate then mutate on the stored user under the write lock.
// mutate only runs when validate succeeds.
func (s *InMemory) Execute(_ context.Context, addr id.Address, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[addr]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", addr, sentinel.ErrNotFound)
	}
	working := u.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.users[addr] = working
	return working.Clone(), nil
}
