package tx

import (
	"context"
	"sync"
	"time"

	dErrors "villageinsure/pkg/domain-errors"
)

// defaultTxTimeout bounds how long a caller may wait for the ledger lock.
const defaultTxTimeout = 5 * time.Second

type serializedKey struct{}

// Serializer is the in-memory transactional boundary for the ledger. Every
// mutating operation runs inside RunInTx, so operations that touch more than one
// aggregate (subscription and pool, claim and member) never interleave.
//
// RunInTx is reentrant through the context it hands to fn: a service called
// from inside another service's transaction runs under the lock it already
// holds instead of deadlocking.
type Serializer struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewSerializer constructs a Serializer. A zero timeout uses the default.
func NewSerializer(timeout time.Duration) *Serializer {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &Serializer{timeout: timeout}
}

func (s *Serializer) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if !s.acquire(ctx) {
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: lock wait exceeded")
	}
	defer s.mu.Unlock()

	return fn(context.WithValue(ctx, serializedKey{}, s))
}

// acquire waits for the lock or for ctx to end, whichever comes first.
func (s *Serializer) acquire(ctx context.Context) bool {
	if s.mu.TryLock() {
		return true
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if s.mu.TryLock() {
				return true
			}
		}
	}
}

// InTx reports whether ctx is already inside a serialized transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(serializedKey{}).(*Serializer)
	return ok
}
