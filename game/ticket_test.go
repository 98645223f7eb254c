package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testTxHash = "C9A2B48E1F3D5C7A9B0E2D4F6A8C0E1B3D5F7A9C1E3B5D7F9A0C2E4B6D8F0A1C"

func TestTicketCodes_Chain(t *testing.T) {
	// 3 XRP at price 1 buys 3 codes: the hash prefix, then prefixes of the
	// iterated SHA-512 chain over the full previous hash.
	count, codes := TicketCodes(testTxHash, 3_000_000, 1, 5)

	assert.Equal(t, int64(3), count)
	assert.Equal(t, []string{"C9A2B", "6585A", "586F3"}, codes)
}

func TestTicketCodes_ChainUsesFullHash(t *testing.T) {
	// The second code hashes the full 128-character previous hash, not its
	// truncated prefix.
	_, codes := TicketCodes(testTxHash, 2_000_000, 1, 5)
	assert.Equal(t, SHA512Hex(testTxHash)[:5], codes[1])
}

func TestTicketCodes_FloorsCount(t *testing.T) {
	count, codes := TicketCodes(testTxHash, 2_999_999, 1, 5)
	assert.Equal(t, int64(2), count)
	assert.Len(t, codes, 2)

	count, codes = TicketCodes(testTxHash, 5_000_000, 2, 5)
	assert.Equal(t, int64(2), count)
	assert.Len(t, codes, 2)
}

func TestTicketCodes_BelowPrice(t *testing.T) {
	count, codes := TicketCodes(testTxHash, 999_999, 1, 5)
	assert.Equal(t, int64(0), count)
	assert.Nil(t, codes)
}
