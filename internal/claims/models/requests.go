package models

import (
	"strings"
	"unicode/utf8"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

const (
	maxDescriptionLength  = 4000
	maxEvidenceHashLength = 256
	maxReasonLength       = 1000
)

// SubmitRequest is the body of POST /claims. EvidenceHash is the content
// address returned by the evidence storage service.
type SubmitRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Amount         string `json:"amount"`
	ClaimType      string `json:"claim_type"`
	Description    string `json:"description"`
	EvidenceHash   string `json:"evidence_hash"`

	submission Submission
}

func (r *SubmitRequest) Normalize() {
	r.SubscriptionID = strings.TrimSpace(r.SubscriptionID)
	r.Amount = strings.TrimSpace(r.Amount)
	r.ClaimType = strings.ToLower(strings.TrimSpace(r.ClaimType))
	r.Description = strings.TrimSpace(r.Description)
	r.EvidenceHash = strings.TrimSpace(r.EvidenceHash)
}

func (r *SubmitRequest) Validate() error {
	subID, err := id.ParseSubscriptionID(r.SubscriptionID)
	if err != nil {
		return err
	}
	amount, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	claimType := ClaimType(r.ClaimType)
	if !claimType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "claim_type must be one of medical, crop, livestock, property, emergency")
	}
	if r.EvidenceHash == "" {
		return dErrors.New(dErrors.CodeValidation, "evidence_hash is required")
	}
	if len(r.EvidenceHash) > maxEvidenceHashLength {
		return dErrors.New(dErrors.CodeValidation, "evidence_hash is too long")
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	r.submission = Submission{
		SubscriptionID: subID,
		Amount:         amount,
		ClaimType:      claimType,
		Description:    r.Description,
		EvidenceHash:   r.EvidenceHash,
	}
	return nil
}

func (r *SubmitRequest) Submission() Submission {
	return r.submission
}

// VoteRequest is the body of POST /claims/{id}/votes.
type VoteRequest struct {
	Approve *bool `json:"approve"`
}

func (r *VoteRequest) Normalize() {}

func (r *VoteRequest) Validate() error {
	if r.Approve == nil {
		return dErrors.New(dErrors.CodeValidation, "approve is required")
	}
	return nil
}

// RejectRequest is the body of POST /claims/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RejectRequest) Validate() error {
	if r.Reason == "" {
		return ErrReasonRequired
	}
	if utf8.RuneCountInString(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	return nil
}
