package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"fundledger/internal/events"
	"fundledger/internal/ledger/models"
	"fundledger/pkg/domain"
	dErrors "fundledger/pkg/domain-errors"
	"fundledger/pkg/platform/sentinel"
	"fundledger/pkg/requestcontext"
)

// Withdraw pays the campaign's whole balance to its owner.
//
// The global guard is held for the whole call, so no withdrawal for any
// campaign can start while this one is in flight; a re-entrant attempt fails
// with withdrawal_in_progress. The balance is zeroed before the payout, and a
// failed payout rolls the zeroing back.
func (s *Service) Withdraw(ctx context.Context, id domain.CampaignID) (*models.WithdrawalResult, error) {
	ctx, span := s.startSpan(ctx, "ledger.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id.String()))

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, s.fail(span, "withdraw", err)
	}

	release, err := s.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			if s.metrics != nil {
				s.metrics.IncrementGuardContention()
			}
			return nil, s.fail(span, "withdraw", dErrors.New(dErrors.CodeWithdrawalInProgress, "another withdrawal is in progress"))
		}
		return nil, s.fail(span, "withdraw", dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire withdrawal guard"))
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to release withdrawal guard", "error", err)
		}
	}()

	var result *models.WithdrawalResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.loadCampaign(ctx, id)
		if err != nil {
			return err
		}
		if err := c.CanWithdraw(caller); err != nil {
			return err
		}
		payout, err := c.ApplyWithdrawal()
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, c); err != nil {
			return translateStoreErr(err, "failed to update campaign")
		}
		if err := s.appendEvents(ctx, events.Withdrawn(c.ID, caller, payout)); err != nil {
			return err
		}
		if err := s.vault.Transfer(ctx, caller, payout); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "failed to transfer funds to owner")
		}
		result = &models.WithdrawalResult{CampaignID: c.ID, Owner: caller, Amount: payout}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "withdraw", err)
	}

	span.SetAttributes(attribute.String("withdrawal.amount", result.Amount.String()))
	if s.metrics != nil {
		s.metrics.ObserveWithdrawal(result.Amount)
	}
	s.logger.InfoContext(ctx, "campaign withdrawn",
		"campaign_id", result.CampaignID.String(),
		"owner", result.Owner.Hex(),
		"amount", result.Amount.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}
