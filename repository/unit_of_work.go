package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hashdraw/database"
	"hashdraw/events"
	"hashdraw/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	gameTxRepo       service.TransactionRepository
	operatorTxRepo   service.TransactionRepository
	drawRepo         service.DrawRepository
	breakdownRepo    service.BreakdownRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.gameTxRepo = newGameTransactionRepositoryWithTx(tx)
	u.operatorTxRepo = newOperatorTransactionRepositoryWithTx(tx)
	u.drawRepo = newDrawRepositoryWithTx(tx)
	u.breakdownRepo = newBreakdownRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// GameTransactionRepository returns the game account log for this unit of work
func (u *unitOfWork) GameTransactionRepository() service.TransactionRepository {
	if u.gameTxRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameTxRepo
}

// OperatorTransactionRepository returns the operator account log for this unit of work
func (u *unitOfWork) OperatorTransactionRepository() service.TransactionRepository {
	if u.operatorTxRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.operatorTxRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() service.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// BreakdownRepository returns the breakdown repository for this unit of work
func (u *unitOfWork) BreakdownRepository() service.BreakdownRepository {
	if u.breakdownRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.breakdownRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
