package models

import "time"

// Draw is one settlement cycle over the ledger window
// [OpenLedgerIndex, CloseLedgerIndex]. Windows are contiguous and
// non-overlapping; CloseLedgerIndex = OpenLedgerIndex + interval - 1.
//
// Created exactly once by the settlement engine when the window closes;
// afterwards only the reconciler flips IsPaid and binds the settlement
// transaction. Pool fields are drops, payout fields whole XRP.
type Draw struct {
	DrawID            string    `db:"draw_id"`
	OpenLedgerIndex   int64     `db:"open_ledger_index"`
	CloseLedgerIndex  int64     `db:"close_ledger_index"`
	CarriedPoolDrops  int64     `db:"carried_pool_drops"`
	IncomeDrops       int64     `db:"income_drops"`
	OperatingFee      int64     `db:"operating_fee"`
	TicketCodeCount   int64     `db:"ticket_code_count"`
	JackpotCode       string    `db:"jackpot_code"`
	PrizeTotal        int64     `db:"prize_total"`
	JackpotTotal      int64     `db:"jackpot_total"`
	PayAmount         int64     `db:"pay_amount"`
	ResidualPoolDrops int64     `db:"residual_pool_drops"`
	IsPaid            bool      `db:"is_paid"`
	PayTxHash         string    `db:"pay_tx_hash"`
	PayFeeDrops       int64     `db:"pay_fee_drops"`
	CreatedAt         time.Time `db:"created_at"`
}

// Ticket is a deposit's view inside a draw window: its ledger position, the
// codes it bought, and the delivered amount. Recomputed by range query from
// game transactions; never stored as its own row.
type Ticket struct {
	Address      string   `json:"Address"`
	LedgerIndex  int64    `json:"LedgerIndex"`
	TxIndex      int32    `json:"TxIndex"`
	TxHash       string   `json:"TxHash"`
	DeliveredXRP int64    `json:"DeliveredAmount"`
	CodeCount    int      `json:"CodeCount"`
	Codes        []string `json:"Codes"`
}

// DrawResult aggregates everything computed when a window closes, for audit
// publication alongside the persisted rows.
type DrawResult struct {
	Draw        *Draw
	Tickets     []Ticket
	JackpotPool int64 // whole XRP available to jackpot winners before proportion
	Jackpot     int64 // per-winning-code share, whole XRP
	Breakdowns  []*Breakdown
}
