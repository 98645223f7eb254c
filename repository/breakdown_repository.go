package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hashdraw/database"
	"hashdraw/models"
)

// BreakdownRepository implements winner payout obligation persistence.
type BreakdownRepository struct {
	q queryable
}

// NewBreakdownRepository creates a new breakdown repository
func NewBreakdownRepository(db *database.DB) *BreakdownRepository {
	return &BreakdownRepository{q: db.Pool}
}

func newBreakdownRepositoryWithTx(tx queryable) *BreakdownRepository {
	return &BreakdownRepository{q: tx}
}

const breakdownColumns = `
	ticket_tx_hash, draw_id, ticket_ledger_index, ticket_tx_index, address,
	jackpot_breakdown, prize_breakdown, amount_total, is_paid, pay_tx_hash,
	pay_fee_drops, created_at`

// Create persists one winner's payout obligation.
func (r *BreakdownRepository) Create(ctx context.Context, breakdown *models.Breakdown) error {
	jackpotJSON, err := json.Marshal(breakdown.JackpotMatches)
	if err != nil {
		return fmt.Errorf("failed to marshal jackpot breakdown: %w", err)
	}
	prizeJSON, err := json.Marshal(breakdown.PrizeMatches)
	if err != nil {
		return fmt.Errorf("failed to marshal prize breakdown: %w", err)
	}

	query := `
		INSERT INTO breakdowns
		(ticket_tx_hash, draw_id, ticket_ledger_index, ticket_tx_index, address,
		 jackpot_breakdown, prize_breakdown, amount_total, is_paid, pay_tx_hash, pay_fee_drops)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		breakdown.TicketTxHash,
		breakdown.DrawID,
		breakdown.TicketLedgerIndex,
		breakdown.TicketTxIndex,
		breakdown.Address,
		jackpotJSON,
		prizeJSON,
		breakdown.AmountTotal,
		breakdown.IsPaid,
		breakdown.PayTxHash,
		breakdown.PayFeeDrops,
	).Scan(&breakdown.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create breakdown for ticket %s: %w", breakdown.TicketTxHash, err)
	}
	return nil
}

// GetByTicketTxHash retrieves one obligation, or nil if unknown.
func (r *BreakdownRepository) GetByTicketTxHash(ctx context.Context, ticketTxHash string) (*models.Breakdown, error) {
	query := fmt.Sprintf(`SELECT %s FROM breakdowns WHERE ticket_tx_hash = $1`, breakdownColumns)

	breakdown, err := scanBreakdown(r.q.QueryRow(ctx, query, ticketTxHash))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get breakdown %s: %w", ticketTxHash, err)
	}
	return breakdown, nil
}

// ListByDraw returns all obligations of one draw in ticket order.
func (r *BreakdownRepository) ListByDraw(ctx context.Context, drawID string) ([]*models.Breakdown, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM breakdowns WHERE draw_id = $1
		ORDER BY ticket_ledger_index ASC, ticket_tx_index ASC
	`, breakdownColumns)

	rows, err := r.q.Query(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdowns for draw %s: %w", drawID, err)
	}
	defer rows.Close()

	return scanBreakdowns(rows)
}

// ListUnpaid returns every unsettled obligation across all draws, in draw and
// ticket order.
func (r *BreakdownRepository) ListUnpaid(ctx context.Context) ([]*models.Breakdown, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM breakdowns WHERE NOT is_paid
		ORDER BY draw_id ASC, ticket_ledger_index ASC, ticket_tx_index ASC
	`, breakdownColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid breakdowns: %w", err)
	}
	defer rows.Close()

	return scanBreakdowns(rows)
}

// MarkPaid transitions an obligation to paid and binds the settlement
// transaction observed on the operator account.
func (r *BreakdownRepository) MarkPaid(ctx context.Context, ticketTxHash, payTxHash string, payFeeDrops int64) error {
	query := `
		UPDATE breakdowns
		SET is_paid = TRUE, pay_tx_hash = $2, pay_fee_drops = $3
		WHERE ticket_tx_hash = $1 AND NOT is_paid
	`

	result, err := r.q.Exec(ctx, query, ticketTxHash, payTxHash, payFeeDrops)
	if err != nil {
		return fmt.Errorf("failed to mark breakdown %s paid: %w", ticketTxHash, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("breakdown %s not found or already paid", ticketTxHash)
	}
	return nil
}

func scanBreakdown(row pgx.Row) (*models.Breakdown, error) {
	var breakdown models.Breakdown
	var jackpotJSON, prizeJSON []byte

	err := row.Scan(
		&breakdown.TicketTxHash,
		&breakdown.DrawID,
		&breakdown.TicketLedgerIndex,
		&breakdown.TicketTxIndex,
		&breakdown.Address,
		&jackpotJSON,
		&prizeJSON,
		&breakdown.AmountTotal,
		&breakdown.IsPaid,
		&breakdown.PayTxHash,
		&breakdown.PayFeeDrops,
		&breakdown.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(jackpotJSON) > 0 {
		if err := json.Unmarshal(jackpotJSON, &breakdown.JackpotMatches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal jackpot breakdown: %w", err)
		}
	}
	if len(prizeJSON) > 0 {
		if err := json.Unmarshal(prizeJSON, &breakdown.PrizeMatches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prize breakdown: %w", err)
		}
	}
	return &breakdown, nil
}

func scanBreakdowns(rows pgx.Rows) ([]*models.Breakdown, error) {
	var breakdowns []*models.Breakdown
	for rows.Next() {
		breakdown, err := scanBreakdown(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}
		breakdowns = append(breakdowns, breakdown)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breakdowns: %w", err)
	}
	return breakdowns, nil
}
