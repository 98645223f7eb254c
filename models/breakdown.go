package models

import "time"

// CodeMatch records one winning code within a ticket: its position in the
// ticket's code list and the code itself.
type CodeMatch struct {
	CodeIndex int    `json:"CodeIndex"`
	Code      string `json:"Code"`
}

// Breakdown is a single winner's aggregated payout obligation within a draw,
// keyed by the originating ticket's transaction hash. Created in the same
// transaction as its parent draw; only the reconciler marks it paid.
type Breakdown struct {
	DrawID            string                 `db:"draw_id"`
	TicketLedgerIndex int64                  `db:"ticket_ledger_index"`
	TicketTxIndex     int32                  `db:"ticket_tx_index"`
	TicketTxHash      string                 `db:"ticket_tx_hash"`
	Address           string                 `db:"address"`
	JackpotMatches    []CodeMatch            `db:"jackpot_breakdown"`
	PrizeMatches      map[string][]CodeMatch `db:"prize_breakdown"`
	AmountTotal       int64                  `db:"amount_total"`
	IsPaid            bool                   `db:"is_paid"`
	PayTxHash         string                 `db:"pay_tx_hash"`
	PayFeeDrops       int64                  `db:"pay_fee_drops"`
	CreatedAt         time.Time              `db:"created_at"`
}
