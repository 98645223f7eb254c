package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"hashdraw/events"
	"hashdraw/ledger"
	"hashdraw/models"
)

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Exists(ctx context.Context, txHash string) (bool, error) {
	args := m.Called(ctx, txHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Insert(ctx context.Context, tx *models.LedgerTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByHash(ctx context.Context, txHash string) (*models.LedgerTransaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListWindowDeposits(ctx context.Context, destination string, openIndex, closeIndex int64) ([]*models.LedgerTransaction, error) {
	args := m.Called(ctx, destination, openIndex, closeIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListOutboundSince(ctx context.Context, source string, fromIndex int64) ([]*models.LedgerTransaction, error) {
	args := m.Called(ctx, source, fromIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) EpochPoolDrops(ctx context.Context, account string, epochIndex int64) (int64, error) {
	args := m.Called(ctx, account, epochIndex)
	return args.Get(0).(int64), args.Error(1)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) GetByID(ctx context.Context, drawID string) (*models.Draw, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetEarliestUnpaid(ctx context.Context) (*models.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetLatestPaid(ctx context.Context) (*models.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) ListUnpaid(ctx context.Context) ([]*models.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) MarkPaid(ctx context.Context, drawID, payTxHash string, payFeeDrops, residualPoolDrops int64) error {
	args := m.Called(ctx, drawID, payTxHash, payFeeDrops, residualPoolDrops)
	return args.Error(0)
}

// MockBreakdownRepository is a mock implementation of BreakdownRepository
type MockBreakdownRepository struct {
	mock.Mock
}

func (m *MockBreakdownRepository) Create(ctx context.Context, breakdown *models.Breakdown) error {
	args := m.Called(ctx, breakdown)
	return args.Error(0)
}

func (m *MockBreakdownRepository) GetByTicketTxHash(ctx context.Context, ticketTxHash string) (*models.Breakdown, error) {
	args := m.Called(ctx, ticketTxHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Breakdown), args.Error(1)
}

func (m *MockBreakdownRepository) ListByDraw(ctx context.Context, drawID string) ([]*models.Breakdown, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Breakdown), args.Error(1)
}

func (m *MockBreakdownRepository) ListUnpaid(ctx context.Context) ([]*models.Breakdown, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Breakdown), args.Error(1)
}

func (m *MockBreakdownRepository) MarkPaid(ctx context.Context, ticketTxHash, payTxHash string, payFeeDrops int64) error {
	args := m.Called(ctx, ticketTxHash, payTxHash, payFeeDrops)
	return args.Error(0)
}

// MockLedgerClient is a mock implementation of ledger.Client
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) ClosedLedgerIndex(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerClient) AccountTransactions(ctx context.Context, account, marker string) ([]ledger.AccountTx, string, error) {
	args := m.Called(ctx, account, marker)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]ledger.AccountTx), args.String(1), args.Error(2)
}

// MockDrawLogPublisher is a mock implementation of DrawLogPublisher
type MockDrawLogPublisher struct {
	mock.Mock
}

func (m *MockDrawLogPublisher) PublishDrawResult(result *models.DrawResult) error {
	args := m.Called(result)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockIngestService is a mock implementation of IngestService
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestAccounts(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockReconcileService is a mock implementation of ReconcileService
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ReconcileDraws(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockReconcileService) ReconcileBreakdowns(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) CloseFrom(ctx context.Context, openIndex, carriedPoolDrops int64) error {
	args := m.Called(ctx, openIndex, carriedPoolDrops)
	return args.Error(0)
}

func (m *MockSettlementService) GenDrawResult(ctx context.Context, openIndex, carriedPoolDrops int64) (*models.DrawResult, error) {
	args := m.Called(ctx, openIndex, carriedPoolDrops)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawResult), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. SetRepositories
// wires the repositories returned by the getters so tests skip stubbing each
// getter call.
type MockUnitOfWork struct {
	mock.Mock

	gameTxRepo     TransactionRepository
	operatorTxRepo TransactionRepository
	drawRepo       DrawRepository
	breakdownRepo  BreakdownRepository
	eventBus       EventPublisher
}

func (m *MockUnitOfWork) SetRepositories(gameTxRepo, operatorTxRepo TransactionRepository, drawRepo DrawRepository, breakdownRepo BreakdownRepository, eventBus EventPublisher) {
	m.gameTxRepo = gameTxRepo
	m.operatorTxRepo = operatorTxRepo
	m.drawRepo = drawRepo
	m.breakdownRepo = breakdownRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) GameTransactionRepository() TransactionRepository {
	return m.gameTxRepo
}

func (m *MockUnitOfWork) OperatorTransactionRepository() TransactionRepository {
	return m.operatorTxRepo
}

func (m *MockUnitOfWork) DrawRepository() DrawRepository {
	return m.drawRepo
}

func (m *MockUnitOfWork) BreakdownRepository() BreakdownRepository {
	return m.breakdownRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
