package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedPrizeAmounts(t *testing.T) {
	// Code length 5, price 1, 3 ranks, weight 16: the lowest rank matches 2
	// characters and pays 16, each rank up multiplies by 16.
	amounts := FixedPrizeAmounts(5, 1, 3, 16)
	assert.Equal(t, []int64{16, 256, 4096}, amounts)
}

func TestFixedPrizeAmounts_SingleRank(t *testing.T) {
	amounts := FixedPrizeAmounts(5, 2, 1, 10)
	assert.Equal(t, []int64{2000}, amounts)
}

func TestPrizeForRank(t *testing.T) {
	amounts := FixedPrizeAmounts(5, 1, 3, 16)

	assert.Equal(t, int64(4096), PrizeForRank(amounts, 1))
	assert.Equal(t, int64(256), PrizeForRank(amounts, 2))
	assert.Equal(t, int64(16), PrizeForRank(amounts, 3))
}

func TestFixedPrizeSettings(t *testing.T) {
	amounts := FixedPrizeAmounts(5, 1, 3, 16)
	settings := FixedPrizeSettings(5, amounts)

	assert.Len(t, settings, 3)
	assert.Equal(t, PrizeSetting{MatchCodeLength: 4, Amount: "4096XRP"}, settings["Rank#1"])
	assert.Equal(t, PrizeSetting{MatchCodeLength: 3, Amount: "256XRP"}, settings["Rank#2"])
	assert.Equal(t, PrizeSetting{MatchCodeLength: 2, Amount: "16XRP"}, settings["Rank#3"])
}
