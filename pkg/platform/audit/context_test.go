package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "villageinsure/pkg/domain"
	"villageinsure/pkg/requestcontext"
)

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
	proposal := id.ProposalID(uuid.New())

	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithCaller(ctx, "GALICE")
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	e := NewEvent(ctx, EventClaimPaid, "claim:1")
	assert.Equal(t, CategoryLedger, e.Category)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, id.Address("GALICE"), e.Actor)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Empty(t, e.ProposalID)

	e = NewEvent(requestcontext.WithProposalExecution(ctx, proposal), EventUserBanned, "user:GBOB")
	assert.Equal(t, proposal.String(), e.ProposalID)
	assert.Equal(t, CategoryMembership, e.Category)
}
