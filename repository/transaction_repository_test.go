package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hashdraw/models"
	"hashdraw/repository/testutil"
)

func TestTransactionRepository_InsertAndQuery(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGameTransactionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("exists on empty log", func(t *testing.T) {
		exists, err := repo.Exists(ctx, "UNKNOWN")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("insert and round trip", func(t *testing.T) {
		tx := testutil.CreateTestTicketTransaction("TICKET1", 95680100, 3, []string{"AAAAA", "00004"})
		tx.Memos = []models.Memo{{MemoType: "Note", MemoData: "hello"}}
		require.NoError(t, repo.Insert(ctx, tx))

		exists, err := repo.Exists(ctx, "TICKET1")
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := repo.GetByHash(ctx, "TICKET1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(95680100), got.LedgerIndex)
		assert.Equal(t, int64(2), got.TicketCount)
		assert.Equal(t, []string{"AAAAA", "00004"}, got.TicketCodes)
		assert.Equal(t, []models.Memo{{MemoType: "Note", MemoData: "hello"}}, got.Memos)
	})

	t.Run("duplicate hash rejected", func(t *testing.T) {
		dup := testutil.CreateTestTransaction("TICKET1", 95680200, 0)
		assert.Error(t, repo.Insert(ctx, dup))
	})

	t.Run("window deposits ordered by ledger position", func(t *testing.T) {
		later := testutil.CreateTestTicketTransaction("TICKET2", 95680100, 9, []string{"BBBBB"})
		earlier := testutil.CreateTestTicketTransaction("TICKET0", 95680050, 1, []string{"CCCCC"})
		outside := testutil.CreateTestTicketTransaction("OUTSIDE", 95700000, 0, []string{"DDDDD"})
		require.NoError(t, repo.Insert(ctx, later))
		require.NoError(t, repo.Insert(ctx, earlier))
		require.NoError(t, repo.Insert(ctx, outside))

		deposits, err := repo.ListWindowDeposits(ctx, "rGAME", 95680001, 95690000)
		require.NoError(t, err)
		require.Len(t, deposits, 3)
		assert.Equal(t, "TICKET0", deposits[0].TxHash)
		assert.Equal(t, "TICKET1", deposits[1].TxHash)
		assert.Equal(t, "TICKET2", deposits[2].TxHash)
	})

	t.Run("outbound since", func(t *testing.T) {
		payout := testutil.CreateTestTransaction("SETTLE1", 95690100, 0)
		payout.Source = "rGAME"
		payout.Destination = "rOPERATOR"
		require.NoError(t, repo.Insert(ctx, payout))

		outbound, err := repo.ListOutboundSince(ctx, "rGAME", 95690000)
		require.NoError(t, err)
		require.Len(t, outbound, 1)
		assert.Equal(t, "SETTLE1", outbound[0].TxHash)

		outbound, err = repo.ListOutboundSince(ctx, "rGAME", 95690101)
		require.NoError(t, err)
		assert.Empty(t, outbound)
	})
}

func TestTransactionRepository_EpochPoolDrops(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGameTransactionRepository(testDB.DB)
	ctx := context.Background()

	// Two deposits in, one payment out before the epoch; one deposit after
	// the epoch that must not count.
	in1 := testutil.CreateTestTransaction("IN1", 95000000, 0)
	in1.DeliveredDrops = 5_000_000
	in2 := testutil.CreateTestTransaction("IN2", 95100000, 0)
	in2.DeliveredDrops = 3_000_000
	out := testutil.CreateTestTransaction("OUT1", 95200000, 0)
	out.Source = "rGAME"
	out.Destination = "rELSEWHERE"
	out.DeliveredDrops = 2_000_000
	out.FeeDrops = 12
	late := testutil.CreateTestTransaction("LATE", 95680001, 0)
	late.DeliveredDrops = 9_000_000

	for _, tx := range []*models.LedgerTransaction{in1, in2, out, late} {
		require.NoError(t, repo.Insert(ctx, tx))
	}

	pool, err := repo.EpochPoolDrops(ctx, "rGAME", 95680001)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000+3_000_000-2_000_000-12), pool)
}
