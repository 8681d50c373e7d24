package models

import dErrors "villageinsure/pkg/domain-errors"

// Reasons returned by the registry.
var (
	ErrAlreadyRegistered = dErrors.New(dErrors.CodeConflict, "address already registered")
	ErrUserNotFound      = dErrors.New(dErrors.CodeNotFound, "user not found")
	ErrNotRegistered     = dErrors.New(dErrors.CodeForbidden, "caller is not registered")
	ErrUserNotActive     = dErrors.New(dErrors.CodeForbidden, "user is not active")
	ErrNotDAOMember      = dErrors.New(dErrors.CodeForbidden, "caller is not a DAO member")
	ErrProposalRequired  = dErrors.New(dErrors.CodeForbidden, "operation requires an executed governance proposal")
	ErrCallerMismatch    = dErrors.New(dErrors.CodeForbidden, "caller may only register their own address")
	ErrCouncilFull       = dErrors.New(dErrors.CodeResourceExhausted, "DAO council is full")
)
