package models

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	dErrors "villageinsure/pkg/domain-errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)

// CreateRequest is the body of POST /proposals.
type CreateRequest struct {
	ProposalType  string          `json:"proposal_type"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ExecutionData json.RawMessage `json:"execution_data"`
}

func (r *CreateRequest) Normalize() {
	r.ProposalType = strings.ToLower(strings.TrimSpace(r.ProposalType))
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateRequest) Validate() error {
	return r.Draft().Validate()
}

func (r *CreateRequest) Draft() Draft {
	return Draft{
		Type:          Type(r.ProposalType),
		Title:         r.Title,
		Description:   r.Description,
		ExecutionData: r.ExecutionData,
	}
}

// Validate checks the draft and that its execution data decodes for its type.
func (d Draft) Validate() error {
	if !d.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "proposal_type must be one of user_approval, plan_management, financial, governance")
	}
	if strings.TrimSpace(d.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(d.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	_, err := DecodePayload(d.Type, d.ExecutionData)
	return err
}

// VoteRequest is the body of POST /proposals/{id}/votes.
type VoteRequest struct {
	Support *bool `json:"support"`
}

func (r *VoteRequest) Normalize() {}

func (r *VoteRequest) Validate() error {
	if r.Support == nil {
		return dErrors.New(dErrors.CodeValidation, "support is required")
	}
	return nil
}
