package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"hashdraw/config"
	"hashdraw/events"
	"hashdraw/game"
	"hashdraw/models"
)

// Memo keys used to correlate settlement transactions with the obligations
// they pay. Operators stamp these onto outbound payments.
const (
	memoKeyDrawID       = "DrawId"
	memoKeyTicketTxHash = "TicketTxHash"
)

type reconcileService struct {
	game           *config.Game
	gameTxRepo     TransactionRepository
	operatorTxRepo TransactionRepository
	drawRepo       DrawRepository
	breakdownRepo  BreakdownRepository
	uowFactory     UnitOfWorkFactory
	eventBus       *events.Bus
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(g *config.Game, gameTxRepo, operatorTxRepo TransactionRepository, drawRepo DrawRepository, breakdownRepo BreakdownRepository, uowFactory UnitOfWorkFactory, eventBus *events.Bus) ReconcileService {
	return &reconcileService{
		game:           g,
		gameTxRepo:     gameTxRepo,
		operatorTxRepo: operatorTxRepo,
		drawRepo:       drawRepo,
		breakdownRepo:  breakdownRepo,
		uowFactory:     uowFactory,
		eventBus:       eventBus,
	}
}

// ReconcileDraws tries to settle every unpaid draw against the observed
// game-account history. A draw only ever transitions on an exact match;
// anything that half-matches is reported and left unpaid.
func (s *reconcileService) ReconcileDraws(ctx context.Context) error {
	draws, err := s.drawRepo.ListUnpaid(ctx)
	if err != nil {
		return err
	}

	for _, draw := range draws {
		tx, viaMemo, err := s.findDrawSettlement(ctx, draw)
		if err != nil {
			return err
		}
		if tx == nil {
			continue
		}

		residual := draw.ResidualPoolDrops - tx.FeeDrops
		if err := s.markDrawPaid(ctx, draw, tx, residual, viaMemo); err != nil {
			return err
		}
	}
	return nil
}

// findDrawSettlement locates the transaction paying a draw. A recorded pay
// hash is authoritative: it is verified and nothing else is considered.
// Otherwise the game account's outbound history from the window close onward
// is scanned for the first payment carrying the draw's id in a memo.
func (s *reconcileService) findDrawSettlement(ctx context.Context, draw *models.Draw) (*models.LedgerTransaction, bool, error) {
	expectedDrops := draw.PayAmount * game.DropsPerXRP

	if draw.PayTxHash != "" {
		tx, err := s.gameTxRepo.GetByHash(ctx, draw.PayTxHash)
		if err != nil {
			return nil, false, err
		}
		if tx == nil {
			// Recorded but not observed yet; try again next pass.
			return nil, false, nil
		}
		if tx.Source != s.game.GameAccount {
			s.reportMismatch(ctx, draw.DrawID, "", tx.TxHash, fmt.Sprintf("recorded pay transaction sent by %s, expected %s", tx.Source, s.game.GameAccount))
			return nil, false, nil
		}
		if tx.DeliveredDrops != expectedDrops {
			s.reportMismatch(ctx, draw.DrawID, "", tx.TxHash, fmt.Sprintf("recorded pay transaction delivered %d drops, expected %d", tx.DeliveredDrops, expectedDrops))
			return nil, false, nil
		}
		return tx, false, nil
	}

	outbound, err := s.gameTxRepo.ListOutboundSince(ctx, s.game.GameAccount, draw.CloseLedgerIndex)
	if err != nil {
		return nil, false, err
	}
	for _, tx := range outbound {
		if memoField(tx.Memos, memoKeyDrawID) != draw.DrawID {
			continue
		}
		// A memo hit with the wrong destination or amount is an
		// inconsistency to report, but the genuine settlement may still
		// appear later in the history, so the scan keeps going.
		if tx.Destination != s.game.OperatorAccount {
			s.reportMismatch(ctx, draw.DrawID, "", tx.TxHash, fmt.Sprintf("memo-matched transaction pays %s, expected %s", tx.Destination, s.game.OperatorAccount))
			continue
		}
		if tx.DeliveredDrops != expectedDrops {
			s.reportMismatch(ctx, draw.DrawID, "", tx.TxHash, fmt.Sprintf("memo-matched transaction delivered %d drops, expected %d", tx.DeliveredDrops, expectedDrops))
			continue
		}
		return tx, true, nil
	}
	return nil, false, nil
}

func (s *reconcileService) markDrawPaid(ctx context.Context, draw *models.Draw, tx *models.LedgerTransaction, residualDrops int64, viaMemo bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.DrawRepository().MarkPaid(ctx, draw.DrawID, tx.TxHash, tx.FeeDrops, residualDrops); err != nil {
		return err
	}
	uow.EventBus().Publish(events.DrawPaymentMatchedEvent{
		DrawID:    draw.DrawID,
		PayTxHash: tx.TxHash,
		PayAmount: draw.PayAmount,
		ViaMemo:   viaMemo,
	})
	if err := uow.Commit(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"drawId":    draw.DrawID,
		"payTxHash": tx.TxHash,
		"payAmount": draw.PayAmount,
		"viaMemo":   viaMemo,
	}).Info("Draw settlement payment matched")
	return nil
}

// ReconcileBreakdowns tries to settle every unpaid winner payout against the
// observed operator-account history.
func (s *reconcileService) ReconcileBreakdowns(ctx context.Context) error {
	breakdowns, err := s.breakdownRepo.ListUnpaid(ctx)
	if err != nil {
		return err
	}

	drawCache := make(map[string]*models.Draw)
	for _, breakdown := range breakdowns {
		draw, ok := drawCache[breakdown.DrawID]
		if !ok {
			draw, err = s.drawRepo.GetByID(ctx, breakdown.DrawID)
			if err != nil {
				return err
			}
			if draw == nil {
				log.WithField("drawId", breakdown.DrawID).Warn("Breakdown references unknown draw")
				continue
			}
			drawCache[breakdown.DrawID] = draw
		}

		tx, viaMemo, err := s.findBreakdownSettlement(ctx, breakdown, draw)
		if err != nil {
			return err
		}
		if tx == nil {
			continue
		}
		if err := s.markBreakdownPaid(ctx, breakdown, tx, viaMemo); err != nil {
			return err
		}
	}
	return nil
}

func (s *reconcileService) findBreakdownSettlement(ctx context.Context, breakdown *models.Breakdown, draw *models.Draw) (*models.LedgerTransaction, bool, error) {
	expectedDrops := breakdown.AmountTotal * game.DropsPerXRP

	if breakdown.PayTxHash != "" {
		tx, err := s.operatorTxRepo.GetByHash(ctx, breakdown.PayTxHash)
		if err != nil {
			return nil, false, err
		}
		if tx == nil {
			return nil, false, nil
		}
		if tx.Source != s.game.OperatorAccount {
			s.reportMismatch(ctx, breakdown.DrawID, breakdown.TicketTxHash, tx.TxHash, fmt.Sprintf("recorded pay transaction sent by %s, expected %s", tx.Source, s.game.OperatorAccount))
			return nil, false, nil
		}
		if tx.DeliveredDrops != expectedDrops {
			s.reportMismatch(ctx, breakdown.DrawID, breakdown.TicketTxHash, tx.TxHash, fmt.Sprintf("recorded pay transaction delivered %d drops, expected %d", tx.DeliveredDrops, expectedDrops))
			return nil, false, nil
		}
		return tx, false, nil
	}

	outbound, err := s.operatorTxRepo.ListOutboundSince(ctx, s.game.OperatorAccount, draw.CloseLedgerIndex)
	if err != nil {
		return nil, false, err
	}
	for _, tx := range outbound {
		if memoField(tx.Memos, memoKeyTicketTxHash) != breakdown.TicketTxHash {
			continue
		}
		if tx.Destination != breakdown.Address {
			s.reportMismatch(ctx, breakdown.DrawID, breakdown.TicketTxHash, tx.TxHash, fmt.Sprintf("memo-matched transaction pays %s, expected %s", tx.Destination, breakdown.Address))
			continue
		}
		if tx.DeliveredDrops != expectedDrops {
			s.reportMismatch(ctx, breakdown.DrawID, breakdown.TicketTxHash, tx.TxHash, fmt.Sprintf("memo-matched transaction delivered %d drops, expected %d", tx.DeliveredDrops, expectedDrops))
			continue
		}
		return tx, true, nil
	}
	return nil, false, nil
}

func (s *reconcileService) markBreakdownPaid(ctx context.Context, breakdown *models.Breakdown, tx *models.LedgerTransaction, viaMemo bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BreakdownRepository().MarkPaid(ctx, breakdown.TicketTxHash, tx.TxHash, tx.FeeDrops); err != nil {
		return err
	}
	uow.EventBus().Publish(events.BreakdownPaymentMatchedEvent{
		DrawID:       breakdown.DrawID,
		TicketTxHash: breakdown.TicketTxHash,
		Address:      breakdown.Address,
		PayTxHash:    tx.TxHash,
		AmountTotal:  breakdown.AmountTotal,
		ViaMemo:      viaMemo,
	})
	if err := uow.Commit(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"drawId":       breakdown.DrawID,
		"ticketTxHash": breakdown.TicketTxHash,
		"address":      breakdown.Address,
		"payTxHash":    tx.TxHash,
		"amountTotal":  breakdown.AmountTotal,
		"viaMemo":      viaMemo,
	}).Info("Winner payout matched")
	return nil
}

func (s *reconcileService) reportMismatch(ctx context.Context, drawID, ticketTxHash, payTxHash, reason string) {
	log.WithFields(log.Fields{
		"drawId":       drawID,
		"ticketTxHash": ticketTxHash,
		"payTxHash":    payTxHash,
		"reason":       reason,
	}).Error("Settlement transaction mismatch, obligation left unpaid")

	s.eventBus.Emit(ctx, events.ReconciliationMismatchEvent{
		DrawID:       drawID,
		TicketTxHash: ticketTxHash,
		PayTxHash:    payTxHash,
		Reason:       reason,
	})
}

// memoField extracts a correlation value from a transaction's decoded memos.
// Operators either set the memo type to the key directly or attach a JSON
// document containing it.
func memoField(memos []models.Memo, field string) string {
	for _, memo := range memos {
		if memo.MemoType == field && memo.MemoData != "" {
			return memo.MemoData
		}
		if gjson.Valid(memo.MemoData) {
			if v := gjson.Get(memo.MemoData, field); v.Exists() {
				return v.String()
			}
		}
	}
	return ""
}
