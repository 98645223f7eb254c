package game

// TicketCodes derives the lottery ticket codes purchased by a deposit.
//
// The count is floor(delivered XRP / ticket price). The first code is the
// leading codeLength characters of the transaction hash; each further code is
// the leading codeLength characters of SHA-512 applied to the previous full
// hash in the chain. Codes are therefore reproducible from the transaction
// hash alone and unknowable before the transaction is mined.
func TicketCodes(txHash string, deliveredDrops, ticketPrice int64, codeLength int) (int64, []string) {
	count := DropsToFloorXRP(deliveredDrops) / ticketPrice
	if count <= 0 {
		return 0, nil
	}

	codes := make([]string, 0, count)
	codes = append(codes, txHash[:codeLength])
	prev := txHash
	for i := int64(1); i < count; i++ {
		current := SHA512Hex(prev)
		codes = append(codes, current[:codeLength])
		prev = current
	}
	return count, codes
}
