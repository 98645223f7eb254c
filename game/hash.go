package game

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// DropsPerXRP is the minor-unit rate of the ledger's native currency.
const DropsPerXRP int64 = 1_000_000

// CoinCode is the currency label used in draw identities and prize settings.
const CoinCode = "XRP"

// SHA512Hex returns the uppercase hex SHA-512 digest of s.
func SHA512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// DrawID derives the identity of the draw opening at the given ledger index,
// e.g. "XRP#95680001".
func DrawID(openLedgerIndex int64) string {
	return fmt.Sprintf("%s#%d", CoinCode, openLedgerIndex)
}

// DropsToFloorXRP converts drops to whole XRP, flooring toward zero.
func DropsToFloorXRP(drops int64) int64 {
	return drops / DropsPerXRP
}

// JackpotPreimage builds the canonical string hashed to derive a draw's
// jackpot code: game name, version, draw id, then all ticket codes in
// ingestion order joined by commas. Any third party must be able to rebuild
// the preimage byte for byte from public ledger data.
func JackpotPreimage(name, version, drawID string, ticketCodes []string) string {
	return fmt.Sprintf("%s-v%s-%s:%s", name, version, drawID, strings.Join(ticketCodes, ","))
}

// JackpotCode derives the winning code for a draw from its canonical preimage.
func JackpotCode(name, version, drawID string, ticketCodes []string, codeLength int) string {
	return SHA512Hex(JackpotPreimage(name, version, drawID, ticketCodes))[:codeLength]
}

// MatchRun returns the length of the common leading-character run between a
// ticket code and the jackpot code. Comparison stops at the first mismatch.
func MatchRun(code, jackpotCode string) int {
	n := len(code)
	if len(jackpotCode) < n {
		n = len(jackpotCode)
	}
	run := 0
	for i := 0; i < n; i++ {
		if code[i] != jackpotCode[i] {
			break
		}
		run++
	}
	return run
}
