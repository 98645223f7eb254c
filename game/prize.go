package game

import "fmt"

// PrizeSetting describes one prize rank for publication in draw results.
type PrizeSetting struct {
	MatchCodeLength int    `json:"MatchCodeLength"`
	Amount          string `json:"Amount"`
}

// FixedPrizeAmounts builds the fixed prize table as an ascending geometric
// progression. Index 0 holds the lowest rank (rank == rankCount, matching
// codeLength-rankCount leading characters); each step up multiplies by
// rankWeight. Amounts are whole XRP.
func FixedPrizeAmounts(codeLength int, ticketPrice int64, rankCount int, rankWeight int64) []int64 {
	lowestMatch := codeLength - rankCount
	lowest := ticketPrice
	for i := 1; i < lowestMatch; i++ {
		lowest *= rankWeight
	}

	amounts := make([]int64, 0, rankCount)
	amounts = append(amounts, lowest)
	for i := 1; i < rankCount; i++ {
		amounts = append(amounts, amounts[len(amounts)-1]*rankWeight)
	}
	return amounts
}

// PrizeForRank returns the amount paid at the given rank (1 is the highest
// rank below the jackpot, rankCount the lowest).
func PrizeForRank(amounts []int64, rank int) int64 {
	return amounts[len(amounts)-rank]
}

// FixedPrizeSettings labels the prize table by rank for the published draw
// result, mirroring the amounts slice from FixedPrizeAmounts.
func FixedPrizeSettings(codeLength int, amounts []int64) map[string]PrizeSetting {
	settings := make(map[string]PrizeSetting, len(amounts))
	for i := len(amounts); i > 0; i-- {
		rank := len(amounts) - i + 1
		settings[fmt.Sprintf("Rank#%d", rank)] = PrizeSetting{
			MatchCodeLength: codeLength - rank,
			Amount:          fmt.Sprintf("%d%s", amounts[i-1], CoinCode),
		}
	}
	return settings
}
