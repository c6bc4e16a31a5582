package utils

import "strings"

// Remove0xPrefix removes the "0x" prefix from a string if it exists
// It is helpful because BTC address/txid don't have the "0x" prefix.
func Remove0xPrefix(input string) string {
	if strings.HasPrefix(input, "0x") {
		return input[2:]
	}
	return input
}

// NormalizeTxID trims, drops a "0x" prefix and lower cases a hex txid.
func NormalizeTxID(input string) string {
	return strings.ToLower(Remove0xPrefix(strings.TrimSpace(input)))
}
