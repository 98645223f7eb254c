package models

import "time"

// Transaction kinds and results as reported by the ledger. Only validated,
// successful payments are ever persisted.
const (
	TxTypePayment   = "Payment"
	TxResultSuccess = "tesSUCCESS"
)

// Memo is one decoded memo attached to a ledger transaction. Fields are the
// hex-decoded text of the on-ledger memo fields.
type Memo struct {
	MemoType   string `json:"MemoType,omitempty"`
	MemoData   string `json:"MemoData,omitempty"`
	MemoFormat string `json:"MemoFormat,omitempty"`
}

// LedgerTransaction is an immutable record of a validated, successful payment
// observed on the ledger. Rows are created once on first sight of a hash and
// never mutated or deleted; the transaction hash is the dedup key.
//
// Game-account rows additionally carry the derived ticket codes when the
// transaction is an inbound deposit after the epoch window opened; operator
// rows leave those fields zero.
type LedgerTransaction struct {
	LedgerIndex    int64     `db:"ledger_index"`
	LedgerHash     string    `db:"ledger_hash"`
	TxIndex        int32     `db:"tx_index"`
	TxType         string    `db:"tx_type"`
	TxResult       string    `db:"tx_result"`
	TxSequence     int64     `db:"tx_sequence"`
	TxHash         string    `db:"tx_hash"`
	Source         string    `db:"source"`
	Destination    string    `db:"destination"`
	DeliveredDrops int64     `db:"delivered_drops"`
	FeeDrops       int64     `db:"fee_drops"`
	TicketCount    int64     `db:"ticket_code_count"`
	TicketCodes    []string  `db:"ticket_codes"`
	CloseTime      time.Time `db:"close_time"`
	Memos          []Memo    `db:"memos"`
	RawJSON        string    `db:"raw"`
}
