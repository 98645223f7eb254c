package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hashdraw/events"
	"hashdraw/ledger"
	"hashdraw/models"
)

const ticketTxHash = "C9A2B48E1F3D5C7A9B0E2D4F6A8C0E1B3D5F7A9C1E3B5D7F9A0C2E4B6D8F0A1C"

func newIngestFixture() (IngestService, *MockLedgerClient, *MockTransactionRepository, *MockTransactionRepository) {
	mockClient := new(MockLedgerClient)
	mockGameTxRepo := new(MockTransactionRepository)
	mockOperatorTxRepo := new(MockTransactionRepository)

	svc := NewIngestService(testGame(), mockClient, mockGameTxRepo, mockOperatorTxRepo, events.NewBus())
	return svc, mockClient, mockGameTxRepo, mockOperatorTxRepo
}

func TestIngestService_StoresNewPaymentsAndDerivesCodes(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, mockGameTxRepo, mockOperatorTxRepo := newIngestFixture()

	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return([]ledger.AccountTx{
		{
			Hash:           ticketTxHash,
			LedgerIndex:    95680100,
			TxIndex:        3,
			Validated:      true,
			TxType:         "Payment",
			Result:         "tesSUCCESS",
			Account:        "rPLAYER",
			Destination:    "rGAME",
			DeliveredDrops: 2_000_000,
			FeeDrops:       12,
		},
	}, "", nil)
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{}, "", nil)

	mockGameTxRepo.On("Exists", ctx, ticketTxHash).Return(false, nil)
	mockGameTxRepo.On("Insert", ctx, mock.MatchedBy(func(row *models.LedgerTransaction) bool {
		return row.TxHash == ticketTxHash &&
			row.TicketCount == 2 &&
			assert.ObjectsAreEqual([]string{"C9A2B", "6585A"}, row.TicketCodes)
	})).Return(nil)

	require.NoError(t, svc.IngestAccounts(ctx))
	mockGameTxRepo.AssertExpectations(t)
	mockOperatorTxRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngestService_EpochLedgerDepositBuysNoTickets(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, mockGameTxRepo, _ := newIngestFixture()

	// A deposit landing exactly on the epoch ledger is income only; codes
	// start one ledger later.
	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return([]ledger.AccountTx{
		{
			Hash:           ticketTxHash,
			LedgerIndex:    95680001,
			Validated:      true,
			TxType:         "Payment",
			Result:         "tesSUCCESS",
			Account:        "rPLAYER",
			Destination:    "rGAME",
			DeliveredDrops: 2_000_000,
		},
	}, "", nil)
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{}, "", nil)

	mockGameTxRepo.On("Exists", ctx, ticketTxHash).Return(false, nil)
	mockGameTxRepo.On("Insert", ctx, mock.MatchedBy(func(row *models.LedgerTransaction) bool {
		return row.TxHash == ticketTxHash &&
			row.TicketCount == 0 &&
			len(row.TicketCodes) == 0
	})).Return(nil)

	require.NoError(t, svc.IngestAccounts(ctx))
	mockGameTxRepo.AssertExpectations(t)
}

func TestIngestService_SkipsNonQualifyingEntries(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, mockGameTxRepo, _ := newIngestFixture()

	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return([]ledger.AccountTx{
		{Hash: "H1", Validated: false, TxType: "Payment", Result: "tesSUCCESS"},
		{Hash: "H2", Validated: true, TxType: "OfferCreate", Result: "tesSUCCESS"},
		{Hash: "H3", Validated: true, TxType: "Payment", Result: "tecUNFUNDED_PAYMENT"},
	}, "", nil)
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{}, "", nil)

	require.NoError(t, svc.IngestAccounts(ctx))
	mockGameTxRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngestService_StopsAtFirstKnownHash(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, mockGameTxRepo, _ := newIngestFixture()

	// Newest first: NEW is unseen, KNOWN is stored, OLDER must never be
	// touched because the stop implies everything past KNOWN is stored.
	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return([]ledger.AccountTx{
		{Hash: "NEW", Validated: true, TxType: "Payment", Result: "tesSUCCESS", Account: "rPLAYER", Destination: "rGAME", LedgerIndex: 95690000, DeliveredDrops: 500_000},
		{Hash: "KNOWN", Validated: true, TxType: "Payment", Result: "tesSUCCESS"},
		{Hash: "OLDER", Validated: true, TxType: "Payment", Result: "tesSUCCESS"},
	}, "NEXTPAGE", nil)
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{}, "", nil)

	mockGameTxRepo.On("Exists", ctx, "NEW").Return(false, nil)
	mockGameTxRepo.On("Exists", ctx, "KNOWN").Return(true, nil)
	mockGameTxRepo.On("Insert", ctx, mock.Anything).Return(nil)

	require.NoError(t, svc.IngestAccounts(ctx))

	mockGameTxRepo.AssertNumberOfCalls(t, "Insert", 1)
	mockGameTxRepo.AssertNotCalled(t, "Exists", ctx, "OLDER")
	// The stop also means the next page is never fetched.
	mockClient.AssertNotCalled(t, "AccountTransactions", ctx, "rGAME", "NEXTPAGE")
}

func TestIngestService_FollowsPagination(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, mockGameTxRepo, _ := newIngestFixture()

	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return([]ledger.AccountTx{
		{Hash: "PAGE1TX", Validated: true, TxType: "Payment", Result: "tesSUCCESS", Account: "rA", Destination: "rB", DeliveredDrops: 1},
	}, "M1", nil)
	mockClient.On("AccountTransactions", ctx, "rGAME", "M1").Return([]ledger.AccountTx{
		{Hash: "PAGE2TX", Validated: true, TxType: "Payment", Result: "tesSUCCESS", Account: "rA", Destination: "rB", DeliveredDrops: 1},
	}, "", nil)
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{}, "", nil)

	mockGameTxRepo.On("Exists", ctx, mock.Anything).Return(false, nil)
	mockGameTxRepo.On("Insert", ctx, mock.Anything).Return(nil)

	require.NoError(t, svc.IngestAccounts(ctx))
	mockGameTxRepo.AssertNumberOfCalls(t, "Insert", 2)
}

func TestIngestService_AccountFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	svc, mockClient, _, mockOperatorTxRepo := newIngestFixture()

	mockClient.On("AccountTransactions", ctx, "rGAME", "").Return(nil, "", errors.New("node unavailable"))
	mockClient.On("AccountTransactions", ctx, "rOPERATOR", "").Return([]ledger.AccountTx{
		{Hash: "OP1", Validated: true, TxType: "Payment", Result: "tesSUCCESS", Account: "rOPERATOR", Destination: "rPLAYER", DeliveredDrops: 1},
	}, "", nil)
	mockOperatorTxRepo.On("Exists", ctx, "OP1").Return(false, nil)
	mockOperatorTxRepo.On("Insert", ctx, mock.Anything).Return(nil)

	err := svc.IngestAccounts(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game account")

	// The operator account still synced.
	mockOperatorTxRepo.AssertNumberOfCalls(t, "Insert", 1)
}
