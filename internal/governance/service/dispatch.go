package service

import (
	"context"

	"villageinsure/internal/governance/models"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/requestcontext"
)

// dispatch applies a decoded payload. ctx carries the executing proposal, which
// is what authorizes the privileged calls below.
func (s *Service) dispatch(ctx context.Context, payload models.Payload) error {
	switch p := payload.(type) {
	case *models.UserApproval:
		return s.applyUserApproval(ctx, p)
	case *models.PlanManagement:
		return s.applyPlanManagement(ctx, p)
	case *models.Financial:
		return s.applyFinancial(ctx, p)
	case *models.Governance:
		return s.applyGovernance(ctx, p)
	}
	return models.ErrUnknownAction
}

func (s *Service) applyUserApproval(ctx context.Context, p *models.UserApproval) error {
	var err error
	switch p.Action {
	case models.ActionActivate:
		_, err = s.members.Activate(ctx, p.Target())
	case models.ActionBan:
		_, err = s.members.Ban(ctx, p.Target())
	case models.ActionGrantDAO:
		_, err = s.members.SetDAOMembership(ctx, p.Target(), true)
	case models.ActionRevokeDAO:
		_, err = s.members.SetDAOMembership(ctx, p.Target(), false)
	default:
		return models.ErrUnknownAction
	}
	return err
}

func (s *Service) applyPlanManagement(ctx context.Context, p *models.PlanManagement) error {
	var err error
	switch p.Action {
	case models.ActionCreate:
		_, err = s.policies.CreateFromProposal(ctx, p.Policy.Title, p.Policy.Description, p.Policy.Params())
	case models.ActionActivate:
		_, err = s.policies.Activate(ctx, p.Target())
	case models.ActionArchive:
		_, err = s.policies.Archive(ctx, p.Target())
	case models.ActionDelete:
		_, err = s.policies.Delete(ctx, p.Target())
	default:
		return models.ErrUnknownAction
	}
	return err
}

func (s *Service) applyFinancial(ctx context.Context, p *models.Financial) error {
	var err error
	switch p.Action {
	case models.ActionExternalFunding:
		_, err = s.pool.AddExternalFunding(ctx, p.ParsedAmount())
	case models.ActionWithdrawReserve:
		_, err = s.pool.WithdrawReserve(ctx, p.ParsedAmount(), p.Purpose)
	case models.ActionSetMinimumReserve:
		_, err = s.pool.SetMinimumReserve(ctx, p.ParsedAmount())
	default:
		return models.ErrUnknownAction
	}
	return err
}

func (s *Service) applyGovernance(ctx context.Context, p *models.Governance) error {
	updated, err := s.rules.Update(*p.Rules)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "platform rules updated",
		"minimum_quorum", updated.MinimumQuorum,
		"grace_period_weeks", updated.GracePeriodWeeks,
		"claim_quorum", updated.ClaimQuorum,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventRulesUpdated, "rules"))
	return nil
}
