// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free of
// net/http lets services depend on it without pulling in transport code.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithCaller(ctx, "GABC123")
package requestcontext

import (
	"context"
	"time"

	id "villageinsure/pkg/domain"
)

type (
	callerKey            struct{}
	requestIDKey         struct{}
	requestTimeKey       struct{}
	proposalExecutionKey struct{}
)

var (
	ContextKeyCaller            = callerKey{}
	ContextKeyRequestID         = requestIDKey{}
	ContextKeyRequestTime       = requestTimeKey{}
	ContextKeyProposalExecution = proposalExecutionKey{}
)

// -----------------------------------------------------------------------------
// Caller identity
// -----------------------------------------------------------------------------

// Caller returns the wallet address of the authenticated caller, or "" when the
// request is anonymous.
func Caller(ctx context.Context) id.Address {
	if addr, ok := ctx.Value(ContextKeyCaller).(id.Address); ok {
		return addr
	}
	return ""
}

// WithCaller injects the caller's wallet address.
func WithCaller(ctx context.Context, addr id.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, addr)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Every lazily derived state (due weeks, voting deadlines, lock-ins) is computed
// from this value, so tests can move the clock without sleeping.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// -----------------------------------------------------------------------------
// Governance execution
// -----------------------------------------------------------------------------

// ExecutingProposal returns the proposal being executed, if any. Privileged
// mutations (membership, policy activation, reserve withdrawal) are only
// permitted while a passed proposal is executing.
func ExecutingProposal(ctx context.Context) (id.ProposalID, bool) {
	p, ok := ctx.Value(ContextKeyProposalExecution).(id.ProposalID)
	return p, ok && !p.IsNil()
}

// WithProposalExecution marks ctx as running on behalf of an executed proposal.
func WithProposalExecution(ctx context.Context, proposalID id.ProposalID) context.Context {
	return context.WithValue(ctx, ContextKeyProposalExecution, proposalID)
}
