package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hashdraw/database"
	"hashdraw/models"
)

const (
	gameTransactionsTable     = "game_transactions"
	operatorTransactionsTable = "operator_transactions"
)

// TransactionRepository stores the immutable ledger transaction log for one
// tracked account. The game and operator logs share the implementation and
// differ only in table.
type TransactionRepository struct {
	q     queryable
	table string
}

// NewGameTransactionRepository creates a repository over the game account log
func NewGameTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool, table: gameTransactionsTable}
}

// NewOperatorTransactionRepository creates a repository over the operator account log
func NewOperatorTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool, table: operatorTransactionsTable}
}

func newGameTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx, table: gameTransactionsTable}
}

func newOperatorTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx, table: operatorTransactionsTable}
}

const txColumns = `
	tx_hash, ledger_index, ledger_hash, tx_index, tx_type, tx_result,
	tx_sequence, source, destination, delivered_drops, fee_drops,
	ticket_code_count, ticket_codes, close_time, memos, raw`

// Exists reports whether a transaction hash is already in the log.
func (r *TransactionRepository) Exists(ctx context.Context, txHash string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE tx_hash = $1)`, r.table)

	var exists bool
	if err := r.q.QueryRow(ctx, query, txHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction %s: %w", txHash, err)
	}
	return exists, nil
}

// Insert appends one transaction to the log. The hash primary key makes the
// log exactly-once; a conflicting insert is an error for the caller.
func (r *TransactionRepository) Insert(ctx context.Context, tx *models.LedgerTransaction) error {
	codesJSON, err := json.Marshal(tx.TicketCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket codes: %w", err)
	}
	memosJSON, err := json.Marshal(tx.Memos)
	if err != nil {
		return fmt.Errorf("failed to marshal memos: %w", err)
	}
	raw := tx.RawJSON
	if raw == "" {
		raw = "{}"
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, r.table, txColumns)

	_, err = r.q.Exec(ctx, query,
		tx.TxHash,
		tx.LedgerIndex,
		tx.LedgerHash,
		tx.TxIndex,
		tx.TxType,
		tx.TxResult,
		tx.TxSequence,
		tx.Source,
		tx.Destination,
		tx.DeliveredDrops,
		tx.FeeDrops,
		tx.TicketCount,
		codesJSON,
		tx.CloseTime,
		memosJSON,
		raw,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.TxHash, err)
	}
	return nil
}

// GetByHash retrieves one transaction, or nil if the hash is unknown.
func (r *TransactionRepository) GetByHash(ctx context.Context, txHash string) (*models.LedgerTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tx_hash = $1`, txColumns, r.table)

	tx, err := r.scanOne(r.q.QueryRow(ctx, query, txHash))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txHash, err)
	}
	return tx, nil
}

// ListWindowDeposits returns all successful payments into the destination
// account within the ledger window [openIndex, closeIndex], in the canonical
// (ledger_index, tx_index) ascending order used for ticket sequencing.
func (r *TransactionRepository) ListWindowDeposits(ctx context.Context, destination string, openIndex, closeIndex int64) ([]*models.LedgerTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tx_type = $1 AND tx_result = $2 AND destination = $3
		  AND ledger_index >= $4 AND ledger_index <= $5
		ORDER BY ledger_index ASC, tx_index ASC
	`, txColumns, r.table)

	rows, err := r.q.Query(ctx, query, models.TxTypePayment, models.TxResultSuccess, destination, openIndex, closeIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to list window deposits: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListOutboundSince returns all successful payments sent by the source
// account at or after fromIndex, ordered by (ledger_index, tx_index).
// The reconciler scans these for memo-correlated settlement transactions.
func (r *TransactionRepository) ListOutboundSince(ctx context.Context, source string, fromIndex int64) ([]*models.LedgerTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tx_type = $1 AND tx_result = $2 AND source = $3 AND ledger_index >= $4
		ORDER BY ledger_index ASC, tx_index ASC
	`, txColumns, r.table)

	rows, err := r.q.Query(ctx, query, models.TxTypePayment, models.TxResultSuccess, source, fromIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbound transactions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// EpochPoolDrops computes the pool carried into the very first draw: every
// successful pre-epoch payment into the account adds its delivered amount,
// every payment out subtracts delivered amount plus fee.
func (r *TransactionRepository) EpochPoolDrops(ctx context.Context, account string, epochIndex int64) (int64, error) {
	query := fmt.Sprintf(`
		SELECT source, destination, delivered_drops, fee_drops FROM %s
		WHERE tx_type = $1 AND tx_result = $2 AND ledger_index < $3
		ORDER BY ledger_index ASC
	`, r.table)

	rows, err := r.q.Query(ctx, query, models.TxTypePayment, models.TxResultSuccess, epochIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to list pre-epoch transactions: %w", err)
	}
	defer rows.Close()

	var pool int64
	for rows.Next() {
		var source, destination string
		var delivered, fee int64
		if err := rows.Scan(&source, &destination, &delivered, &fee); err != nil {
			return 0, fmt.Errorf("failed to scan pre-epoch transaction: %w", err)
		}
		if destination == account {
			pool += delivered
		} else if source == account {
			pool -= delivered + fee
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate pre-epoch transactions: %w", err)
	}
	return pool, nil
}

func (r *TransactionRepository) scanOne(row pgx.Row) (*models.LedgerTransaction, error) {
	var tx models.LedgerTransaction
	var codesJSON, memosJSON []byte

	err := row.Scan(
		&tx.TxHash,
		&tx.LedgerIndex,
		&tx.LedgerHash,
		&tx.TxIndex,
		&tx.TxType,
		&tx.TxResult,
		&tx.TxSequence,
		&tx.Source,
		&tx.Destination,
		&tx.DeliveredDrops,
		&tx.FeeDrops,
		&tx.TicketCount,
		&codesJSON,
		&tx.CloseTime,
		&memosJSON,
		&tx.RawJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(codesJSON) > 0 {
		if err := json.Unmarshal(codesJSON, &tx.TicketCodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ticket codes: %w", err)
		}
	}
	if len(memosJSON) > 0 {
		if err := json.Unmarshal(memosJSON, &tx.Memos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal memos: %w", err)
		}
	}
	return &tx, nil
}

func (r *TransactionRepository) scanAll(rows pgx.Rows) ([]*models.LedgerTransaction, error) {
	var txs []*models.LedgerTransaction
	for rows.Next() {
		tx, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
