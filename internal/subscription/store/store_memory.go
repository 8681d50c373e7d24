package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"villageinsure/internal/subscription/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the subscription id is unknown
//   - ErrAlreadyUsed when creating a duplicate id
//   - validate errors from Execute are returned unchanged
//
// Stored subscriptions are not brought current; callers recompute on read.

// InMemory stores subscriptions and their payment history.
type InMemory struct {
	mu            sync.RWMutex
	subscriptions map[id.SubscriptionID]*models.Subscription
	payments      map[id.SubscriptionID][]models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{
		subscriptions: make(map[id.SubscriptionID]*models.Subscription),
		payments:      make(map[id.SubscriptionID][]models.Payment),
	}
}

func (s *InMemory) Create(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subscriptions[sub.ID]; exists {
		return fmt.Errorf("subscription %s: %w", sub.ID, sentinel.ErrAlreadyUsed)
	}
	s.subscriptions[sub.ID] = sub.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, subID id.SubscriptionID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[subID]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", subID, sentinel.ErrNotFound)
	}
	return sub.Clone(), nil
}

// ListBySubscriber returns the subscriber's subscriptions, oldest first.
func (s *InMemory) ListBySubscriber(_ context.Context, subscriber id.Address) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Subscriber == subscriber {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Execute runs validate then mutate on the stored subscription under the
// write lock.
func (s *InMemory) Execute(_ context.Context, subID id.SubscriptionID, validate func(*models.Subscription) error, mutate func(*models.Subscription)) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[subID]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", subID, sentinel.ErrNotFound)
	}
	working := sub.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.subscriptions[subID] = working
	return working.Clone(), nil
}

func (s *InMemory) AppendPayment(_ context.Context, payment models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[payment.SubscriptionID]; !ok {
		return fmt.Errorf("subscription %s: %w", payment.SubscriptionID, sentinel.ErrNotFound)
	}
	s.payments[payment.SubscriptionID] = append(s.payments[payment.SubscriptionID], payment)
	return nil
}

// ListPayments returns payments in the order they were made.
func (s *InMemory) ListPayments(_ context.Context, subID id.SubscriptionID) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Payment{}, s.payments[subID]...), nil
}
