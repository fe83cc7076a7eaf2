package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fundledger/internal/events"
	"fundledger/internal/exchange"
	"fundledger/internal/ledger/metrics"
	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/tx"
	"fundledger/pkg/requestcontext"
)

// ContributeNative accepts amount of the settlement asset from the caller.
//
// Preconditions are checked in order: date goal, price goal, nonzero amount.
// An amount above the room left under the price goal is clamped and the
// change is sent back; if that refund fails the whole contribution is undone.
func (s *Service) ContributeNative(ctx context.Context, id domain.CampaignID, amount domain.Amount) (*models.ContributionResult, error) {
	ctx, span := s.startSpan(ctx, "ledger.ContributeNative")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id.String()))

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, s.fail(span, "contribute_native", err)
	}

	var result *models.ContributionResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.loadCampaign(ctx, id)
		if err != nil {
			return err
		}
		if err := c.CanContribute(requestcontext.Now(ctx), amount); err != nil {
			return err
		}
		if err := s.vault.Deposit(ctx, caller, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to take custody of contribution")
		}

		settlement, err := c.Settle(amount)
		if err != nil {
			return err
		}
		result, err = s.record(ctx, c, caller, settlement)
		if err != nil {
			return err
		}
		result.Offered = amount

		if !settlement.Change.IsZero() {
			if err := s.vault.Transfer(ctx, caller, settlement.Change); err != nil {
				return dErrors.Wrap(err, dErrors.CodeRefundFailed, "failed to refund change")
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "contribute_native", err)
	}

	s.observeContribution(ctx, span, metrics.PathNative, result)
	return result, nil
}

// ContributeToken swaps tc.Amount of tc.Token into the settlement asset and
// contributes the realized output. Change is swapped back into the token and
// returned to the caller.
//
// The swap is granted an allowance of exactly tc.Amount for this call. No
// minimum output is enforced.
func (s *Service) ContributeToken(ctx context.Context, id domain.CampaignID, tc models.TokenContribution) (*models.ContributionResult, error) {
	ctx, span := s.startSpan(ctx, "ledger.ContributeToken")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", id.String()),
		attribute.String("token", tc.Token.Hex()),
	)

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, s.fail(span, "contribute_token", err)
	}
	if tc.Token.IsZero() {
		return nil, s.fail(span, "contribute_token", dErrors.New(dErrors.CodeValidation, "token must not be the zero address"))
	}
	if tc.Token == s.cfg.SettlementAsset {
		return nil, s.fail(span, "contribute_token", dErrors.New(dErrors.CodeValidation, "use the native path for the settlement asset"))
	}

	var result *models.ContributionResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.loadCampaign(ctx, id)
		if err != nil {
			return err
		}
		if err := c.CanContribute(requestcontext.Now(ctx), tc.Amount); err != nil {
			return err
		}

		donation, err := s.swap(ctx, exchange.SwapRequest{
			AssetIn:   tc.Token,
			AssetOut:  s.cfg.SettlementAsset,
			AmountIn:  tc.Amount,
			Allowance: tc.Amount,
			Route:     tc.Route,
			Deadline:  tc.Deadline,
			Recipient: s.cfg.Custody,
		})
		if err != nil {
			return err
		}

		// If the unit of work fails from here on, swap whatever the ledger
		// still holds back to the contributor.
		held := donation
		tx.OnRollback(ctx, func(ctx context.Context) {
			s.returnTokens(ctx, caller, tc, held)
		})

		settlement, err := c.Settle(donation)
		if err != nil {
			return err
		}
		if err := s.vault.Deposit(ctx, caller, settlement.Accepted); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to take custody of contribution")
		}
		result, err = s.record(ctx, c, caller, settlement)
		if err != nil {
			return err
		}
		result.Offered = tc.Amount

		if !settlement.Change.IsZero() {
			_, err := s.exchange.Swap(ctx, exchange.SwapRequest{
				AssetIn:   s.cfg.SettlementAsset,
				AssetOut:  tc.Token,
				AmountIn:  settlement.Change,
				Allowance: settlement.Change,
				Route:     tc.Route,
				Deadline:  tc.Deadline,
				Recipient: caller,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeRefundFailed, "failed to refund change through the exchange")
			}
			held = settlement.Accepted
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "contribute_token", err)
	}

	s.observeContribution(ctx, span, metrics.PathToken, result)
	return result, nil
}

// swap runs the inbound conversion and insists on a definite nonzero output.
func (s *Service) swap(ctx context.Context, req exchange.SwapRequest) (domain.Amount, error) {
	out, err := s.exchange.Swap(ctx, req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeExchangeExpired) {
			return domain.Amount{}, err
		}
		if dErrors.HasCode(err, dErrors.CodeExchangeFailed) {
			return domain.Amount{}, err
		}
		return domain.Amount{}, dErrors.Wrap(err, dErrors.CodeExchangeFailed, "exchange failed")
	}
	if out.IsZero() {
		return domain.Amount{}, dErrors.New(dErrors.CodeExchangeFailed, "exchange produced no output")
	}
	return out, nil
}

// returnTokens compensates a rolled-back token contribution. The swap carries
// no deadline: the contributor's deadline may already have passed and the
// return must still go through.
func (s *Service) returnTokens(ctx context.Context, to domain.Address, tc models.TokenContribution, held domain.Amount) {
	if held.IsZero() {
		return
	}
	_, err := s.exchange.Swap(ctx, exchange.SwapRequest{
		AssetIn:   s.cfg.SettlementAsset,
		AssetOut:  tc.Token,
		AmountIn:  held,
		Allowance: held,
		Route:     tc.Route,
		Recipient: to,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to return tokens after rollback",
			"contributor", to.Hex(),
			"token", tc.Token.Hex(),
			"settlement_amount", held.String(),
			"error", err,
		)
	}
}

// record applies an accepted donation: first-donation receipt, campaign and
// donor totals, then the events. The receipt result never blocks the donation.
func (s *Service) record(ctx context.Context, c *models.Campaign, donor domain.Address, settlement models.Settlement) (*models.ContributionResult, error) {
	prior, err := s.store.Donation(ctx, c.ID, donor)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load donation")
	}

	result := &models.ContributionResult{
		CampaignID:  c.ID,
		Contributor: donor,
		Donation:    settlement.Offered,
		Accepted:    settlement.Accepted,
		Change:      settlement.Change,
	}

	var evs []events.Event
	if prior.IsZero() && !settlement.Accepted.IsZero() {
		receiptID, err := s.receipts.IssueTo(ctx, donor, c.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "receipt issuance failed; contribution continues",
				"campaign_id", c.ID.String(),
				"donor", donor.Hex(),
				"error", err,
			)
		} else {
			result.ReceiptID = &receiptID
			evs = append(evs, events.ReceiptIssued(c.ID, receiptID, donor))
		}
	}

	if err := c.ApplyDonation(settlement.Accepted); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, translateStoreErr(err, "failed to update campaign")
	}
	if _, err := s.store.AddDonation(ctx, c.ID, donor, settlement.Accepted); err != nil {
		return nil, translateStoreErr(err, "failed to update donor total")
	}

	evs = append(evs, events.Donated(c.ID, donor, settlement.Accepted))
	if settlement.FillsGoal {
		result.PriceGoalReached = true
		evs = append(evs, events.PriceGoalReached(c.ID, c.PriceGoal))
	}
	if err := s.appendEvents(ctx, evs...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) observeContribution(ctx context.Context, span trace.Span, path string, r *models.ContributionResult) {
	span.SetAttributes(
		attribute.String("donation.accepted", r.Accepted.String()),
		attribute.String("donation.change", r.Change.String()),
		attribute.Bool("price_goal.reached", r.PriceGoalReached),
	)
	if s.metrics != nil {
		s.metrics.ObserveDonation(path, r.Accepted, r.Change)
	}
	s.logger.InfoContext(ctx, "contribution accepted",
		"campaign_id", r.CampaignID.String(),
		"contributor", r.Contributor.Hex(),
		"path", path,
		"offered", r.Offered.String(),
		"accepted", r.Accepted.String(),
		"change", r.Change.String(),
		"price_goal_reached", r.PriceGoalReached,
		"request_id", requestcontext.RequestID(ctx),
	)
}
