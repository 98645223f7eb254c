package service

import (
	"context"

	"hashdraw/events"
	"hashdraw/models"
)

// TransactionRepository defines the interface for the per-account ledger
// transaction log. One instance tracks the game account, another the operator
// account.
type TransactionRepository interface {
	// Exists reports whether a transaction hash is already stored
	Exists(ctx context.Context, txHash string) (bool, error)

	// Insert appends one transaction to the log
	Insert(ctx context.Context, tx *models.LedgerTransaction) error

	// GetByHash retrieves a transaction by hash, nil if unknown
	GetByHash(ctx context.Context, txHash string) (*models.LedgerTransaction, error)

	// ListWindowDeposits returns successful payments into an account within
	// [openIndex, closeIndex] in (ledger_index, tx_index) order
	ListWindowDeposits(ctx context.Context, destination string, openIndex, closeIndex int64) ([]*models.LedgerTransaction, error)

	// ListOutboundSince returns successful payments sent by an account at or
	// after fromIndex in (ledger_index, tx_index) order
	ListOutboundSince(ctx context.Context, source string, fromIndex int64) ([]*models.LedgerTransaction, error)

	// EpochPoolDrops computes the account balance delta over all stored
	// pre-epoch payments
	EpochPoolDrops(ctx context.Context, account string, epochIndex int64) (int64, error)
}

// DrawRepository defines the interface for draw data access
type DrawRepository interface {
	// Create persists a newly settled draw
	Create(ctx context.Context, draw *models.Draw) error

	// GetByID retrieves a draw by its identifier, nil if unknown
	GetByID(ctx context.Context, drawID string) (*models.Draw, error)

	// GetEarliestUnpaid returns the unpaid draw with the lowest open index, nil if none
	GetEarliestUnpaid(ctx context.Context) (*models.Draw, error)

	// GetLatestPaid returns the paid draw with the highest open index, nil if none
	GetLatestPaid(ctx context.Context) (*models.Draw, error)

	// ListUnpaid returns all unpaid draws in window order
	ListUnpaid(ctx context.Context) ([]*models.Draw, error)

	// MarkPaid transitions a draw to paid
	MarkPaid(ctx context.Context, drawID, payTxHash string, payFeeDrops, residualPoolDrops int64) error
}

// BreakdownRepository defines the interface for winner payout obligations
type BreakdownRepository interface {
	// Create persists one winner's payout obligation
	Create(ctx context.Context, breakdown *models.Breakdown) error

	// GetByTicketTxHash retrieves one obligation, nil if unknown
	GetByTicketTxHash(ctx context.Context, ticketTxHash string) (*models.Breakdown, error)

	// ListByDraw returns all obligations of one draw in ticket order
	ListByDraw(ctx context.Context, drawID string) ([]*models.Breakdown, error)

	// ListUnpaid returns all unsettled obligations across draws
	ListUnpaid(ctx context.Context) ([]*models.Breakdown, error)

	// MarkPaid transitions an obligation to paid
	MarkPaid(ctx context.Context, ticketTxHash, payTxHash string, payFeeDrops int64) error
}

// IngestService defines the interface for pulling account history from the
// ledger into the local log
type IngestService interface {
	// IngestAccounts syncs the game and operator transaction logs up to the
	// current validated ledger. A failure on one account does not stop the other.
	IngestAccounts(ctx context.Context) error
}

// SettlementService defines the interface for closing draw windows
type SettlementService interface {
	// CloseFrom settles consecutive closeable windows starting at openIndex
	// with carriedPoolDrops carried in. It stops at the first draw requiring
	// an operator payment, or when the next window cannot close yet.
	CloseFrom(ctx context.Context, openIndex, carriedPoolDrops int64) error

	// GenDrawResult computes a window's full result without persisting it
	GenDrawResult(ctx context.Context, openIndex, carriedPoolDrops int64) (*models.DrawResult, error)
}

// ReconcileService defines the interface for matching recorded obligations
// against observed settlement transactions
type ReconcileService interface {
	// ReconcileDraws attempts to settle every unpaid draw
	ReconcileDraws(ctx context.Context) error

	// ReconcileBreakdowns attempts to settle every unpaid winner payout
	ReconcileBreakdowns(ctx context.Context) error
}

// SchedulerService defines the interface for the periodic pipeline pass
type SchedulerService interface {
	// RunPass executes one full ingest, reconcile and settle cycle
	RunPass(ctx context.Context) error
}

// DrawLogPublisher defines the interface for publishing per-draw audit
// artifacts after settlement
type DrawLogPublisher interface {
	// PublishDrawResult publishes one settled draw's full result
	PublishDrawResult(result *models.DrawResult) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	GameTransactionRepository() TransactionRepository
	OperatorTransactionRepository() TransactionRepository
	DrawRepository() DrawRepository
	BreakdownRepository() BreakdownRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
