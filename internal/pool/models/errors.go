package models

import dErrors "villageinsure/pkg/domain-errors"

var (
	ErrInsufficientReserve = dErrors.New(dErrors.CodeResourceExhausted, "payout would breach the minimum reserve")
	ErrPayoutRatioExceeded = dErrors.New(dErrors.CodeResourceExhausted, "payout exceeds the maximum share of the pool")
	ErrInvestmentNotFound  = dErrors.New(dErrors.CodeNotFound, "investment not found")
	ErrInvestmentLocked    = dErrors.New(dErrors.CodeInvalidState, "investment is still locked in")
	ErrInvestmentWithdrawn = dErrors.New(dErrors.CodeInvalidState, "investment already withdrawn")
	ErrNotInvestor         = dErrors.New(dErrors.CodeForbidden, "caller is not the investor")
	ErrInvalidAmount       = dErrors.New(dErrors.CodeValidation, "amount must be positive")
)
