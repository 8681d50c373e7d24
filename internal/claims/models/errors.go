package models

import dErrors "villageinsure/pkg/domain-errors"

var (
	ErrClaimNotFound           = dErrors.New(dErrors.CodeNotFound, "claim not found")
	ErrSubscriptionNotEligible = dErrors.New(dErrors.CodeInvalidState, "subscription is not eligible for claims")
	ErrAmountExceedsCoverage   = dErrors.New(dErrors.CodeValidation, "amount exceeds the policy's maximum claim amount")
	ErrCooldownActive          = dErrors.New(dErrors.CodeInvalidState, "claim cooldown has not elapsed")
	ErrNotClaimer              = dErrors.New(dErrors.CodeForbidden, "only the subscriber can file a claim")
	ErrNotVotingEligible       = dErrors.New(dErrors.CodeInvalidState, "claim is no longer open for votes")
	ErrSelfAdjudication        = dErrors.New(dErrors.CodeForbidden, "claimers cannot adjudicate their own claims")
	ErrDAOApprovalRequired     = dErrors.New(dErrors.CodeInvalidState, "policy requires a DAO vote before payout")
	ErrNotApprovable           = dErrors.New(dErrors.CodeInvalidState, "claim cannot be approved from its current status")
	ErrNotRejectable           = dErrors.New(dErrors.CodeInvalidState, "claim cannot be rejected from its current status")
	ErrReasonRequired          = dErrors.New(dErrors.CodeValidation, "rejection reason is required")
)
