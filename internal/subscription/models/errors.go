package models

import dErrors "villageinsure/pkg/domain-errors"

var (
	ErrSubscriptionNotFound  = dErrors.New(dErrors.CodeNotFound, "subscription not found")
	ErrAlreadySubscribed     = dErrors.New(dErrors.CodeConflict, "user already has an open subscription to this policy")
	ErrSubscriptionCancelled = dErrors.New(dErrors.CodeInvalidState, "subscription is cancelled")
	ErrNoPremiumDue          = dErrors.New(dErrors.CodeInvalidState, "no premium is currently due")
	ErrNotSubscriber         = dErrors.New(dErrors.CodeForbidden, "caller is not the subscriber")
)
