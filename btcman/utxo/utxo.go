/*
This file contains aggregate operations on UTXO lists.
*/
package utxo

// Sum of the amounts, in satoshi.
func Sum(inputs []*UTXO) int64 {
	var sum int64
	for _, item := range inputs {
		sum += item.Amount
	}
	return sum
}

// WithDefaultPkScript returns copies of the inputs where a missing locking
// script is replaced by pkScript. The inputs are left untouched.
func WithDefaultPkScript(inputs []*UTXO, pkScript []byte) []*UTXO {
	out := make([]*UTXO, 0, len(inputs))
	for _, item := range inputs {
		u := *item
		if len(u.PkScript) == 0 {
			u.PkScript = pkScript
		}
		out = append(out, &u)
	}
	return out
}
