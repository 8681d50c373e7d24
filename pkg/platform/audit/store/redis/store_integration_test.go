//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "villageinsure/pkg/domain"
	audit "villageinsure/pkg/platform/audit"
	"villageinsure/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *Store
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.store = New(s.redis.Client, WithMaxEvents(3))
}

func (s *RedisStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	alice := id.Address("GALICE")
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: ts, Actor: alice, Subject: "subscription:1",
		Action: string(audit.EventPremiumPaid), Amount: "50",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: ts, Actor: "GBOB", Action: string(audit.EventClaimVoted),
	}))

	s.Run("per-actor list", func() {
		events, err := s.store.ListByActor(ctx, alice)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal("50", events[0].Amount)
		s.Equal(audit.CategoryLedger, events[0].Category)
		s.True(ts.Equal(events[0].Timestamp))
	})

	s.Run("recent list is newest first", func() {
		events, err := s.store.ListRecent(ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(string(audit.EventClaimVoted), events[0].Action)
	})
}

func (s *RedisStoreSuite) TestGlobalListIsCapped() {
	ctx := context.Background()
	for range 5 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{Action: string(audit.EventPoolAudited)}))
	}
	events, err := s.store.ListRecent(ctx, 0)
	s.Require().NoError(err)
	s.Len(events, 3)
}
