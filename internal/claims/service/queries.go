package service

import (
	"context"

	"villageinsure/internal/claims/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	return s.find(ctx, claimID)
}

// List returns claims with the given status, or all claims when status is
// empty.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Claim, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown claim status")
	}
	claims, err := s.claims.List(ctx, status)
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	return claims, nil
}

func (s *Service) ListByUser(ctx context.Context, claimer id.Address) ([]*models.Claim, error) {
	claims, err := s.claims.ListByClaimer(ctx, claimer)
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	return claims, nil
}

// Statistics summarizes every claim on record.
func (s *Service) Statistics(ctx context.Context) (models.Statistics, error) {
	claims, err := s.claims.List(ctx, "")
	if err != nil {
		return models.Statistics{}, wrapClaimErr(err)
	}
	return models.Summarize(claims), nil
}
