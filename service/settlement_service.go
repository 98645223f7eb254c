package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"hashdraw/config"
	"hashdraw/events"
	"hashdraw/game"
	"hashdraw/models"
)

type settlementService struct {
	game       *config.Game
	client     headSource
	uowFactory UnitOfWorkFactory
	drawLog    DrawLogPublisher
}

// headSource is the slice of the ledger client the settlement engine needs:
// only where the validated chain currently ends.
type headSource interface {
	ClosedLedgerIndex(ctx context.Context) (int64, error)
}

// NewSettlementService creates a new settlement service
func NewSettlementService(g *config.Game, client headSource, uowFactory UnitOfWorkFactory, drawLog DrawLogPublisher) SettlementService {
	return &settlementService{
		game:       g,
		client:     client,
		uowFactory: uowFactory,
		drawLog:    drawLog,
	}
}

// CloseFrom settles consecutive windows starting at openIndex. Each iteration
// settles one window; the loop advances only through draws that need no
// operator payment and stops at the first one that does, at a window the
// ledger has not reached yet, or at the end of the game.
func (s *settlementService) CloseFrom(ctx context.Context, openIndex, carriedPoolDrops int64) error {
	head, err := s.client.ClosedLedgerIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to get closed ledger index: %w", err)
	}

	for {
		if openIndex > s.game.CloseLedgerIndex {
			log.WithField("openLedgerIndex", openIndex).Info("Game window exhausted, no further draws")
			return nil
		}

		closeIndex := openIndex + s.game.DrawLedgerInterval - 1
		if closeIndex > head {
			log.WithFields(log.Fields{
				"openLedgerIndex":  openIndex,
				"closeLedgerIndex": closeIndex,
				"ledgerHead":       head,
			}).Debug("Window still open, waiting for ledger to advance")
			return nil
		}

		result, err := s.settleWindow(ctx, openIndex, carriedPoolDrops)
		if err != nil {
			return err
		}
		if !result.Draw.IsPaid {
			log.WithFields(log.Fields{
				"drawId":    result.Draw.DrawID,
				"payAmount": result.Draw.PayAmount,
			}).Info("Draw awaits operator settlement payment")
			return nil
		}

		openIndex = closeIndex + 1
		carriedPoolDrops = result.Draw.ResidualPoolDrops
	}
}

// GenDrawResult computes a window's full result without persisting anything.
func (s *settlementService) GenDrawResult(ctx context.Context, openIndex, carriedPoolDrops int64) (*models.DrawResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return s.buildDrawResult(ctx, uow.GameTransactionRepository(), openIndex, carriedPoolDrops)
}

// settleWindow persists one window's draw and breakdowns atomically. A window
// already settled is returned as-is, making the loop safe to re-enter.
func (s *settlementService) settleWindow(ctx context.Context, openIndex, carriedPoolDrops int64) (*models.DrawResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	drawID := game.DrawID(openIndex)
	existing, err := uow.DrawRepository().GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.DrawResult{Draw: existing}, nil
	}

	result, err := s.buildDrawResult(ctx, uow.GameTransactionRepository(), openIndex, carriedPoolDrops)
	if err != nil {
		return nil, err
	}

	// A draw owing nothing settles itself; there is no transfer to wait for.
	autoPaid := result.Draw.PayAmount == 0 && len(result.Breakdowns) == 0
	result.Draw.IsPaid = autoPaid

	if err := uow.DrawRepository().Create(ctx, result.Draw); err != nil {
		return nil, err
	}
	for _, breakdown := range result.Breakdowns {
		if err := uow.BreakdownRepository().Create(ctx, breakdown); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.DrawSettledEvent{
		DrawID:            result.Draw.DrawID,
		OpenLedgerIndex:   result.Draw.OpenLedgerIndex,
		CloseLedgerIndex:  result.Draw.CloseLedgerIndex,
		TicketCodeCount:   result.Draw.TicketCodeCount,
		JackpotCode:       result.Draw.JackpotCode,
		PayAmount:         result.Draw.PayAmount,
		ResidualPoolDrops: result.Draw.ResidualPoolDrops,
		AutoPaid:          autoPaid,
	})

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"drawId":          result.Draw.DrawID,
		"ticketCodeCount": result.Draw.TicketCodeCount,
		"jackpotCode":     result.Draw.JackpotCode,
		"payAmount":       result.Draw.PayAmount,
		"winners":         len(result.Breakdowns),
		"autoPaid":        autoPaid,
	}).Info("Draw settled")

	if err := s.drawLog.PublishDrawResult(result); err != nil {
		// The database rows are the source of truth; a failed artifact write
		// must not wedge settlement.
		log.WithError(err).WithField("drawId", result.Draw.DrawID).Warn("Failed to publish draw artifact")
	}
	return result, nil
}

// buildDrawResult derives everything a window settles to: tickets, jackpot
// code, winner breakdowns and the pool arithmetic. All payout amounts are
// whole XRP, pools stay in drops, and every division floors.
func (s *settlementService) buildDrawResult(ctx context.Context, txRepo TransactionRepository, openIndex, carriedPoolDrops int64) (*models.DrawResult, error) {
	closeIndex := openIndex + s.game.DrawLedgerInterval - 1
	drawID := game.DrawID(openIndex)

	deposits, err := txRepo.ListWindowDeposits(ctx, s.game.GameAccount, openIndex, closeIndex)
	if err != nil {
		return nil, err
	}

	var incomeDrops int64
	var codes []string
	var tickets []models.Ticket
	for _, tx := range deposits {
		incomeDrops += tx.DeliveredDrops
		if tx.TicketCount <= 0 {
			continue
		}
		tickets = append(tickets, models.Ticket{
			Address:      tx.Source,
			LedgerIndex:  tx.LedgerIndex,
			TxIndex:      tx.TxIndex,
			TxHash:       tx.TxHash,
			DeliveredXRP: game.DropsToFloorXRP(tx.DeliveredDrops),
			CodeCount:    int(tx.TicketCount),
			Codes:        tx.TicketCodes,
		})
		codes = append(codes, tx.TicketCodes...)
	}
	codeCount := int64(len(codes))

	var operatingFee int64
	if codeCount > 0 {
		operatingFee = int64(float64(game.DropsToFloorXRP(incomeDrops)) * s.game.OperatingFeeRate)
		if operatingFee < s.game.OperatingFeeMin {
			operatingFee = s.game.OperatingFeeMin
		}
	}
	poolDrops := carriedPoolDrops + incomeDrops - operatingFee*game.DropsPerXRP

	jackpotCode := game.JackpotCode(s.game.Name, s.game.Version, drawID, codes, s.game.JackpotCodeLength)
	prizeAmounts := game.FixedPrizeAmounts(s.game.JackpotCodeLength, s.game.TicketPrice, s.game.PrizeRankCount, s.game.PrizeRankWeight)

	var prizeTotal, jackpotWinners int64
	var breakdowns []*models.Breakdown
	for _, ticket := range tickets {
		var breakdown *models.Breakdown
		ensure := func() *models.Breakdown {
			if breakdown == nil {
				breakdown = &models.Breakdown{
					DrawID:            drawID,
					TicketLedgerIndex: ticket.LedgerIndex,
					TicketTxIndex:     ticket.TxIndex,
					TicketTxHash:      ticket.TxHash,
					Address:           ticket.Address,
					PrizeMatches:      make(map[string][]models.CodeMatch),
				}
			}
			return breakdown
		}

		for i, code := range ticket.Codes {
			run := game.MatchRun(code, jackpotCode)
			if run >= s.game.JackpotCodeLength {
				b := ensure()
				b.JackpotMatches = append(b.JackpotMatches, models.CodeMatch{CodeIndex: i, Code: code})
				jackpotWinners++
				continue
			}
			rank := s.game.JackpotCodeLength - run
			if rank > s.game.PrizeRankCount {
				continue
			}
			amount := game.PrizeForRank(prizeAmounts, rank)
			prizeTotal += amount
			b := ensure()
			key := fmt.Sprintf("Rank#%d", rank)
			b.PrizeMatches[key] = append(b.PrizeMatches[key], models.CodeMatch{CodeIndex: i, Code: code})
			b.AmountTotal += amount
		}

		if breakdown != nil {
			breakdowns = append(breakdowns, breakdown)
		}
	}

	jackpotPool := game.DropsToFloorXRP(poolDrops - prizeTotal*game.DropsPerXRP)
	var perWinner, jackpotTotal int64
	if jackpotWinners > 0 {
		distributable := int64(float64(jackpotPool) * s.game.JackpotProportion)
		perWinner = distributable / jackpotWinners
		jackpotTotal = perWinner * jackpotWinners
	}
	for _, breakdown := range breakdowns {
		breakdown.AmountTotal += perWinner * int64(len(breakdown.JackpotMatches))
		// A winner owed nothing, possible when the jackpot pool rounds a
		// share down to zero, has no transfer to reconcile.
		breakdown.IsPaid = breakdown.AmountTotal == 0
	}

	payAmount := operatingFee + prizeTotal + jackpotTotal
	residualDrops := poolDrops - (prizeTotal+jackpotTotal)*game.DropsPerXRP

	draw := &models.Draw{
		DrawID:            drawID,
		OpenLedgerIndex:   openIndex,
		CloseLedgerIndex:  closeIndex,
		CarriedPoolDrops:  carriedPoolDrops,
		IncomeDrops:       incomeDrops,
		OperatingFee:      operatingFee,
		TicketCodeCount:   codeCount,
		JackpotCode:       jackpotCode,
		PrizeTotal:        prizeTotal,
		JackpotTotal:      jackpotTotal,
		PayAmount:         payAmount,
		ResidualPoolDrops: residualDrops,
	}

	return &models.DrawResult{
		Draw:        draw,
		Tickets:     tickets,
		JackpotPool: jackpotPool,
		Jackpot:     perWinner,
		Breakdowns:  breakdowns,
	}, nil
}
