package models

import dErrors "villageinsure/pkg/domain-errors"

var (
	ErrPolicyNotFound  = dErrors.New(dErrors.CodeNotFound, "policy not found")
	ErrPolicyNotActive = dErrors.New(dErrors.CodeInvalidState, "policy is not active")
)
