package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hashdraw/database"
	"hashdraw/models"
)

// DrawRepository implements draw persistence. Draws are created once by the
// settlement engine; only MarkPaid mutates them afterwards.
type DrawRepository struct {
	q queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(db *database.DB) *DrawRepository {
	return &DrawRepository{q: db.Pool}
}

func newDrawRepositoryWithTx(tx queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

const drawColumns = `
	draw_id, open_ledger_index, close_ledger_index, carried_pool_drops,
	income_drops, operating_fee, ticket_code_count, jackpot_code,
	prize_total, jackpot_total, pay_amount, residual_pool_drops,
	is_paid, pay_tx_hash, pay_fee_drops, created_at`

// Create persists a newly settled draw.
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	query := `
		INSERT INTO draws
		(draw_id, open_ledger_index, close_ledger_index, carried_pool_drops,
		 income_drops, operating_fee, ticket_code_count, jackpot_code,
		 prize_total, jackpot_total, pay_amount, residual_pool_drops,
		 is_paid, pay_tx_hash, pay_fee_drops)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		draw.DrawID,
		draw.OpenLedgerIndex,
		draw.CloseLedgerIndex,
		draw.CarriedPoolDrops,
		draw.IncomeDrops,
		draw.OperatingFee,
		draw.TicketCodeCount,
		draw.JackpotCode,
		draw.PrizeTotal,
		draw.JackpotTotal,
		draw.PayAmount,
		draw.ResidualPoolDrops,
		draw.IsPaid,
		draw.PayTxHash,
		draw.PayFeeDrops,
	).Scan(&draw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draw %s: %w", draw.DrawID, err)
	}
	return nil
}

// GetByID retrieves a draw, or nil if unknown.
func (r *DrawRepository) GetByID(ctx context.Context, drawID string) (*models.Draw, error) {
	query := fmt.Sprintf(`SELECT %s FROM draws WHERE draw_id = $1`, drawColumns)

	draw, err := scanDraw(r.q.QueryRow(ctx, query, drawID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw %s: %w", drawID, err)
	}
	return draw, nil
}

// GetEarliestUnpaid returns the unpaid draw with the lowest open index, or
// nil when every draw has settled.
func (r *DrawRepository) GetEarliestUnpaid(ctx context.Context) (*models.Draw, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM draws WHERE NOT is_paid
		ORDER BY open_ledger_index ASC LIMIT 1
	`, drawColumns)

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get earliest unpaid draw: %w", err)
	}
	return draw, nil
}

// GetLatestPaid returns the paid draw with the highest open index, or nil.
// Its close index and residual pool seed the next window.
func (r *DrawRepository) GetLatestPaid(ctx context.Context) (*models.Draw, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM draws WHERE is_paid
		ORDER BY open_ledger_index DESC LIMIT 1
	`, drawColumns)

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest paid draw: %w", err)
	}
	return draw, nil
}

// ListUnpaid returns all unpaid draws in window order.
func (r *DrawRepository) ListUnpaid(ctx context.Context) ([]*models.Draw, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM draws WHERE NOT is_paid
		ORDER BY open_ledger_index ASC
	`, drawColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid draws: %w", err)
	}
	defer rows.Close()

	var draws []*models.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}
	return draws, nil
}

// MarkPaid transitions a draw to paid, binding the settlement transaction and
// the residual pool leaving the draw (reduced by the settlement fee when one
// was observed).
func (r *DrawRepository) MarkPaid(ctx context.Context, drawID, payTxHash string, payFeeDrops, residualPoolDrops int64) error {
	query := `
		UPDATE draws
		SET is_paid = TRUE, pay_tx_hash = $2, pay_fee_drops = $3, residual_pool_drops = $4
		WHERE draw_id = $1 AND NOT is_paid
	`

	result, err := r.q.Exec(ctx, query, drawID, payTxHash, payFeeDrops, residualPoolDrops)
	if err != nil {
		return fmt.Errorf("failed to mark draw %s paid: %w", drawID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("draw %s not found or already paid", drawID)
	}
	return nil
}

func scanDraw(row pgx.Row) (*models.Draw, error) {
	var draw models.Draw
	err := row.Scan(
		&draw.DrawID,
		&draw.OpenLedgerIndex,
		&draw.CloseLedgerIndex,
		&draw.CarriedPoolDrops,
		&draw.IncomeDrops,
		&draw.OperatingFee,
		&draw.TicketCodeCount,
		&draw.JackpotCode,
		&draw.PrizeTotal,
		&draw.JackpotTotal,
		&draw.PayAmount,
		&draw.ResidualPoolDrops,
		&draw.IsPaid,
		&draw.PayTxHash,
		&draw.PayFeeDrops,
		&draw.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &draw, nil
}
