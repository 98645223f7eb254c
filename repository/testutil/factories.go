package testutil

import (
	"time"

	"hashdraw/models"
)

// CreateTestTransaction creates a ledger transaction row with default values
func CreateTestTransaction(txHash string, ledgerIndex int64, txIndex int32) *models.LedgerTransaction {
	return &models.LedgerTransaction{
		TxHash:         txHash,
		LedgerIndex:    ledgerIndex,
		LedgerHash:     "LEDGERHASH",
		TxIndex:        txIndex,
		TxType:         models.TxTypePayment,
		TxResult:       models.TxResultSuccess,
		TxSequence:     1,
		Source:         "rPLAYER",
		Destination:    "rGAME",
		DeliveredDrops: 2_000_000,
		FeeDrops:       12,
		CloseTime:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		RawJSON:        `{"hash":"` + txHash + `"}`,
	}
}

// CreateTestTicketTransaction creates a deposit that bought ticket codes
func CreateTestTicketTransaction(txHash string, ledgerIndex int64, txIndex int32, codes []string) *models.LedgerTransaction {
	tx := CreateTestTransaction(txHash, ledgerIndex, txIndex)
	tx.TicketCount = int64(len(codes))
	tx.TicketCodes = codes
	tx.DeliveredDrops = int64(len(codes)) * 1_000_000
	return tx
}

// CreateTestDraw creates a settled but unpaid draw
func CreateTestDraw(drawID string, openIndex, closeIndex int64) *models.Draw {
	return &models.Draw{
		DrawID:            drawID,
		OpenLedgerIndex:   openIndex,
		CloseLedgerIndex:  closeIndex,
		CarriedPoolDrops:  10_000_000,
		IncomeDrops:       2_000_000,
		OperatingFee:      1,
		TicketCodeCount:   2,
		JackpotCode:       "8B1A8",
		PrizeTotal:        0,
		JackpotTotal:      0,
		PayAmount:         1,
		ResidualPoolDrops: 11_000_000,
	}
}

// CreateTestBreakdown creates an unpaid winner payout obligation
func CreateTestBreakdown(drawID, ticketTxHash string, amount int64) *models.Breakdown {
	return &models.Breakdown{
		DrawID:            drawID,
		TicketLedgerIndex: 95680100,
		TicketTxIndex:     3,
		TicketTxHash:      ticketTxHash,
		Address:           "rPLAYER",
		PrizeMatches: map[string][]models.CodeMatch{
			"Rank#3": {{CodeIndex: 1, Code: "00004"}},
		},
		AmountTotal: amount,
	}
}
