package audit

import (
	"context"

	"villageinsure/pkg/requestcontext"
)

// NewEvent builds an event for action stamped with the request clock, caller,
// request id and, when present, the executing proposal.
func NewEvent(ctx context.Context, action AuditEvent, subject string) Event {
	e := Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Actor:     requestcontext.Caller(ctx),
		Subject:   subject,
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
	}
	if p, ok := requestcontext.ExecutingProposal(ctx); ok {
		e.ProposalID = p.String()
	}
	return e
}
