package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"hashdraw/config"
	"hashdraw/events"
	"hashdraw/game"
	"hashdraw/ledger"
	"hashdraw/models"
)

type ingestService struct {
	game           *config.Game
	client         ledger.Client
	gameTxRepo     TransactionRepository
	operatorTxRepo TransactionRepository
	eventBus       *events.Bus
}

// NewIngestService creates a new ingest service
func NewIngestService(g *config.Game, client ledger.Client, gameTxRepo, operatorTxRepo TransactionRepository, eventBus *events.Bus) IngestService {
	return &ingestService{
		game:           g,
		client:         client,
		gameTxRepo:     gameTxRepo,
		operatorTxRepo: operatorTxRepo,
		eventBus:       eventBus,
	}
}

// IngestAccounts syncs both tracked account logs. The accounts are independent
// histories; a failure on one is reported but does not stop the other.
func (s *ingestService) IngestAccounts(ctx context.Context) error {
	var errs []error

	if err := s.ingestAccount(ctx, s.game.GameAccount, s.gameTxRepo); err != nil {
		log.WithError(err).WithField("account", s.game.GameAccount).Error("Failed to ingest game account history")
		errs = append(errs, fmt.Errorf("game account: %w", err))
	}
	if err := s.ingestAccount(ctx, s.game.OperatorAccount, s.operatorTxRepo); err != nil {
		log.WithError(err).WithField("account", s.game.OperatorAccount).Error("Failed to ingest operator account history")
		errs = append(errs, fmt.Errorf("operator account: %w", err))
	}

	return errors.Join(errs...)
}

// ingestAccount walks the account's history newest-first and stores every
// validated successful payment not yet in the log. The walk stops at the
// first hash already stored: everything older is known, because rows are
// only ever appended from this same newest-first walk.
func (s *ingestService) ingestAccount(ctx context.Context, account string, repo TransactionRepository) error {
	var (
		marker   string
		newRows  int
		lastHash string
	)

pages:
	for {
		txs, nextMarker, err := s.client.AccountTransactions(ctx, account, marker)
		if err != nil {
			return fmt.Errorf("failed to fetch account history: %w", err)
		}

		for _, tx := range txs {
			if !tx.Validated || tx.TxType != models.TxTypePayment || tx.Result != models.TxResultSuccess {
				continue
			}

			exists, err := repo.Exists(ctx, tx.Hash)
			if err != nil {
				return err
			}
			if exists {
				break pages
			}

			if err := repo.Insert(ctx, s.toRow(tx)); err != nil {
				return err
			}
			newRows++
			lastHash = tx.Hash
		}

		if nextMarker == "" {
			break
		}
		marker = nextMarker
	}

	if newRows > 0 {
		log.WithFields(log.Fields{
			"account": account,
			"newRows": newRows,
		}).Info("Ingested new ledger transactions")

		s.eventBus.Emit(ctx, events.TransactionsIngestedEvent{
			Account:  account,
			NewRows:  newRows,
			LastHash: lastHash,
		})
	}
	return nil
}

// toRow converts a raw history entry into a log row. Deposits into the game
// account strictly after the epoch ledger buy ticket codes; everything else,
// including a deposit landing exactly on the epoch ledger, stores zero codes.
func (s *ingestService) toRow(tx ledger.AccountTx) *models.LedgerTransaction {
	row := &models.LedgerTransaction{
		TxHash:         tx.Hash,
		LedgerIndex:    tx.LedgerIndex,
		LedgerHash:     tx.LedgerHash,
		TxIndex:        tx.TxIndex,
		TxType:         tx.TxType,
		TxResult:       tx.Result,
		TxSequence:     tx.Sequence,
		Source:         tx.Account,
		Destination:    tx.Destination,
		DeliveredDrops: tx.DeliveredDrops,
		FeeDrops:       tx.FeeDrops,
		CloseTime:      tx.CloseTime,
		Memos:          tx.Memos,
		RawJSON:        tx.RawJSON,
	}

	if tx.Destination == s.game.GameAccount && tx.LedgerIndex > s.game.EpochLedgerIndex {
		row.TicketCount, row.TicketCodes = game.TicketCodes(tx.Hash, tx.DeliveredDrops, s.game.TicketPrice, s.game.JackpotCodeLength)
	}
	return row
}
