package models

import dErrors "villageinsure/pkg/domain-errors"

var (
	ErrProposalNotFound  = dErrors.New(dErrors.CodeNotFound, "proposal not found")
	ErrProposalNotActive = dErrors.New(dErrors.CodeInvalidState, "proposal is not open for votes")
	ErrVotingClosed      = dErrors.New(dErrors.CodeInvalidState, "voting period has ended")
	ErrAlreadyVoted      = dErrors.New(dErrors.CodeConflict, "member has already voted on this proposal")
	ErrNotPassed         = dErrors.New(dErrors.CodeInvalidState, "proposal has not passed")
	ErrAlreadyExecuted   = dErrors.New(dErrors.CodeConflict, "proposal already executed")
	ErrInvalidPayload    = dErrors.New(dErrors.CodeValidation, "execution data is malformed")
	ErrUnknownAction     = dErrors.New(dErrors.CodeValidation, "execution data names an unknown action")
)
