package models

import (
	"strings"

	id "villageinsure/pkg/domain"
)

// SubscribeRequest is the body of POST /subscriptions.
type SubscribeRequest struct {
	PolicyID string `json:"policy_id"`

	policyID id.PolicyID
}

func (r *SubscribeRequest) Normalize() {
	r.PolicyID = strings.TrimSpace(r.PolicyID)
}

func (r *SubscribeRequest) Validate() error {
	policyID, err := id.ParsePolicyID(r.PolicyID)
	if err != nil {
		return err
	}
	r.policyID = policyID
	return nil
}

func (r *SubscribeRequest) ParsedPolicyID() id.PolicyID {
	return r.policyID
}
