package ledger

import (
	"context"
	"time"

	"hashdraw/models"
)

// AccountTx is one entry of an account's transaction history as reported by
// the ledger, before any filtering or persistence.
type AccountTx struct {
	Hash           string
	LedgerIndex    int64
	LedgerHash     string
	TxIndex        int32
	Validated      bool
	TxType         string
	Result         string
	Sequence       int64
	Account        string
	Destination    string
	DeliveredDrops int64
	FeeDrops       int64
	CloseTime      time.Time
	Memos          []models.Memo
	RawJSON        string
}

// Client is the narrow contract the settlement core consumes. History is
// time-ordered most-recent-first and paginated by an opaque marker; an empty
// returned marker means the history is exhausted.
type Client interface {
	// ClosedLedgerIndex returns the index of the most recently closed ledger.
	ClosedLedgerIndex(ctx context.Context) (int64, error)

	// AccountTransactions returns one page of the account's transaction
	// history starting at marker ("" for the newest page).
	AccountTransactions(ctx context.Context, account, marker string) ([]AccountTx, string, error)
}
