package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"hashdraw/config"
)

type schedulerService struct {
	game       *config.Game
	ingest     IngestService
	reconcile  ReconcileService
	settlement SettlementService
	gameTxRepo TransactionRepository
	drawRepo   DrawRepository
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(g *config.Game, ingest IngestService, reconcile ReconcileService, settlement SettlementService, gameTxRepo TransactionRepository, drawRepo DrawRepository) SchedulerService {
	return &schedulerService{
		game:       g,
		ingest:     ingest,
		reconcile:  reconcile,
		settlement: settlement,
		gameTxRepo: gameTxRepo,
		drawRepo:   drawRepo,
	}
}

// RunPass executes one full pipeline cycle: pull fresh ledger history, match
// outstanding obligations against it, then close every window the chain and
// the payment state allow. Draws settle strictly in window order; an unpaid
// draw blocks all later ones.
func (s *schedulerService) RunPass(ctx context.Context) error {
	// Ingestion failure leaves the local log stale, not wrong. The rest of
	// the pass still runs on what is stored.
	if err := s.ingest.IngestAccounts(ctx); err != nil {
		log.WithError(err).Warn("Ingestion incomplete, continuing pass on stored history")
	}

	if err := s.reconcile.ReconcileDraws(ctx); err != nil {
		return err
	}
	if err := s.reconcile.ReconcileBreakdowns(ctx); err != nil {
		return err
	}

	unpaid, err := s.drawRepo.GetEarliestUnpaid(ctx)
	if err != nil {
		return err
	}
	if unpaid != nil {
		log.WithFields(log.Fields{
			"drawId":    unpaid.DrawID,
			"payAmount": unpaid.PayAmount,
		}).Info("Awaiting settlement payment, not closing further windows")
		return nil
	}

	openIndex, carriedPoolDrops, err := s.nextWindow(ctx)
	if err != nil {
		return err
	}
	if openIndex == 0 {
		return nil
	}

	return s.settlement.CloseFrom(ctx, openIndex, carriedPoolDrops)
}

// nextWindow determines where settlement resumes. With no paid draw yet the
// game starts at the epoch, carrying in whatever the game account accumulated
// before it; afterwards each window starts right after the last paid one and
// carries its residual pool. Returns openIndex 0 when the game is complete.
func (s *schedulerService) nextWindow(ctx context.Context) (int64, int64, error) {
	latest, err := s.drawRepo.GetLatestPaid(ctx)
	if err != nil {
		return 0, 0, err
	}

	if latest == nil {
		carried, err := s.gameTxRepo.EpochPoolDrops(ctx, s.game.GameAccount, s.game.EpochLedgerIndex)
		if err != nil {
			return 0, 0, err
		}
		return s.game.EpochLedgerIndex, carried, nil
	}

	if latest.CloseLedgerIndex >= s.game.CloseLedgerIndex {
		log.WithField("drawId", latest.DrawID).Info("Final draw settled, game complete")
		return 0, 0, nil
	}
	return latest.CloseLedgerIndex + 1, latest.ResidualPoolDrops, nil
}
