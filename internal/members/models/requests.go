package models

import (
	"strings"

	dErrors "villageinsure/pkg/domain-errors"
)

type RegisterRequest struct {
	Name string `json:"name"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterRequest) Validate() error {
	if len(r.Name) > maxNameLength*4 {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	return nil
}

// ScoreDeltaRequest adjusts credit or reputation.
type ScoreDeltaRequest struct {
	Delta int `json:"delta"`
}

func (r *ScoreDeltaRequest) Normalize() {}

func (r *ScoreDeltaRequest) Validate() error {
	if r.Delta == 0 {
		return dErrors.New(dErrors.CodeValidation, "delta must not be zero")
	}
	if r.Delta < -MaxCreditScore*10 || r.Delta > MaxCreditScore*10 {
		return dErrors.New(dErrors.CodeValidation, "delta is out of range")
	}
	return nil
}
