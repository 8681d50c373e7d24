package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/pool/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

const poolSubject = "pool"

// CreditPremium books a premium (and any late penalty) into the pool. It is
// called by the subscription ledger inside its transaction.
func (s *Service) CreditPremium(ctx context.Context, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	_, err := s.move(ctx, "premium",
		func(*models.SafetyPool) error { return nil },
		func(p *models.SafetyPool) { p.CreditPremium(amount) },
	)
	return err
}

// PayClaim debits a claim payout. It fails without side effects when the
// payout would breach the minimum reserve or the payout ratio.
func (s *Service) PayClaim(ctx context.Context, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	ratio := s.rules.Current().MaxClaimAmountRatioBps
	_, err := s.move(ctx, "claim_payout",
		func(p *models.SafetyPool) error { return p.CanPayClaim(amount, ratio) },
		func(p *models.SafetyPool) { p.ApplyClaimPayout(amount) },
	)
	return err
}

// AddExternalFunding credits donor or treasury money. DAO member or executing
// proposal.
func (s *Service) AddExternalFunding(ctx context.Context, amount decimal.Decimal) (pool *models.SafetyPool, err error) {
	ctx, span := tracing.Start(ctx, tracer, "pool.AddExternalFunding", attribute.String("amount", amount.String()))
	defer func() { tracing.End(span, err) }()

	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.members.AuthorizeGovernor(ctx); err != nil {
			return err
		}
		pool, err = s.move(ctx, "external_funding",
			func(*models.SafetyPool) error { return nil },
			func(p *models.SafetyPool) { p.CreditInvestment(amount) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emitAmount(ctx, audit.EventExternalFunding, poolSubject, amount)
	return pool, nil
}

// WithdrawReserve moves money out of the pool for purpose. Executing Financial
// proposal only.
func (s *Service) WithdrawReserve(ctx context.Context, amount decimal.Decimal, purpose string) (pool *models.SafetyPool, err error) {
	ctx, span := tracing.Start(ctx, tracer, "pool.WithdrawReserve", attribute.String("amount", amount.String()))
	defer func() { tracing.End(span, err) }()

	if err := requireProposal(ctx); err != nil {
		return nil, err
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	pool, err = s.move(ctx, "reserve_withdrawal",
		func(p *models.SafetyPool) error { return p.CanDebit(amount) },
		func(p *models.SafetyPool) { p.ApplyWithdrawal(amount) },
	)
	if err != nil {
		return nil, err
	}
	event := audit.NewEvent(ctx, audit.EventReserveWithdrawn, poolSubject)
	event.Amount = amount.String()
	event.Reason = purpose
	s.emit(ctx, event)
	return pool, nil
}

// SetMinimumReserve changes the reserve floor. Executing Financial proposal
// only.
func (s *Service) SetMinimumReserve(ctx context.Context, amount decimal.Decimal) (*models.SafetyPool, error) {
	if err := requireProposal(ctx); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, models.ErrInvalidAmount
	}
	return s.move(ctx, "minimum_reserve",
		func(*models.SafetyPool) error { return nil },
		func(p *models.SafetyPool) { p.ApplyMinimumReserve(amount) },
	)
}

// DepositInvestment places the caller's capital against an Active policy's
// interest rate and lock-in.
func (s *Service) DepositInvestment(ctx context.Context, policyID id.PolicyID, amount decimal.Decimal) (inv *models.Investment, err error) {
	ctx, span := tracing.Start(ctx, tracer, "pool.DepositInvestment", attribute.String("policy_id", policyID.String()))
	defer func() { tracing.End(span, err) }()

	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		investor, err := s.members.RequireActive(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		policy, err := s.policies.RequireActive(ctx, policyID)
		if err != nil {
			return err
		}
		created := models.NewInvestment(id.InvestmentID(uuid.New()), investor.Address, policyID, amount,
			policy.InterestRateBps, policy.InvestorLockIn(), requestcontext.Now(ctx))
		if _, err := s.move(ctx, "investment_deposit",
			func(*models.SafetyPool) error { return nil },
			func(p *models.SafetyPool) { p.CreditInvestment(amount) },
		); err != nil {
			return err
		}
		if err := s.store.CreateInvestment(ctx, created); err != nil {
			return wrapInvestmentErr(err)
		}
		inv = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitAmount(ctx, audit.EventInvestmentDeposited, "investment:"+inv.ID.String(), amount)
	return inv, nil
}

// WithdrawInvestment pays out principal plus simple interest once the lock-in
// has passed, subject to the minimum reserve.
func (s *Service) WithdrawInvestment(ctx context.Context, invID id.InvestmentID) (inv *models.Investment, err error) {
	ctx, span := tracing.Start(ctx, tracer, "pool.WithdrawInvestment", attribute.String("investment_id", invID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		current, err := s.store.FindInvestment(ctx, invID)
		if err != nil {
			return wrapInvestmentErr(err)
		}
		if current.Investor != requestcontext.Caller(ctx) {
			return models.ErrNotInvestor
		}
		if err := current.CanWithdraw(now); err != nil {
			return err
		}
		payout := current.PayoutAt(now)
		if _, err := s.move(ctx, "investment_withdrawal",
			func(p *models.SafetyPool) error { return p.CanDebit(payout) },
			func(p *models.SafetyPool) { p.ApplyWithdrawal(payout) },
		); err != nil {
			return err
		}
		updated, err := s.store.ExecuteInvestment(ctx, invID,
			func(i *models.Investment) error { return i.CanWithdraw(now) },
			func(i *models.Investment) { i.ApplyWithdrawal(payout, now) },
		)
		if err != nil {
			return wrapInvestmentErr(err)
		}
		inv = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitAmount(ctx, audit.EventInvestmentWithdrawn, "investment:"+invID.String(), inv.Payout)
	return inv, nil
}

// ListInvestments returns the investor's investments; an empty address lists all.
func (s *Service) ListInvestments(ctx context.Context, investor id.Address) ([]*models.Investment, error) {
	out, err := s.store.ListInvestments(ctx, investor)
	if err != nil {
		return nil, wrapInvestmentErr(err)
	}
	return out, nil
}

// Details returns a snapshot of the pool.
func (s *Service) Details(ctx context.Context) (*models.SafetyPool, error) {
	return s.store.Snapshot(ctx)
}

// Summary returns the dashboard totals.
func (s *Service) Summary(ctx context.Context) (models.Summary, error) {
	p, err := s.store.Snapshot(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	return p.Summary(), nil
}

// Audit verifies the ledger identity and stamps the audit date. DAO member or
// executing proposal.
func (s *Service) Audit(ctx context.Context) (report *models.AuditReport, err error) {
	ctx, span := tracing.Start(ctx, tracer, "pool.Audit")
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.members.AuthorizeGovernor(ctx); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		p, err := s.store.Execute(ctx,
			func(*models.SafetyPool) error { return nil },
			func(p *models.SafetyPool) { p.ApplyAudit(now) },
		)
		if err != nil {
			return err
		}
		expected := p.PremiumContributions.Add(p.InvestmentReturns).Sub(p.ClaimPayouts)
		report = &models.AuditReport{
			Pool:      p,
			Balanced:  p.CheckIdentity() == nil,
			Deviation: p.TotalBalance.Sub(expected),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Balanced {
		s.logger.ErrorContext(ctx, "pool ledger identity violated",
			"deviation", report.Deviation.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	event := audit.NewEvent(ctx, audit.EventPoolAudited, poolSubject)
	event.Decision = "balanced"
	if !report.Balanced {
		event.Decision = "unbalanced"
	}
	s.emit(ctx, event)
	return report, nil
}
