package utils

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

var (
	satPerBtc      = decimal.NewFromInt(btcutil.SatoshiPerBitcoin)
	vbytesPerKvB   = decimal.NewFromInt(1000)
	MinFeeRateSatV = int64(1) // floor of any fee rate handed to the assembler
)

func SatoshiToBtc(satoshi int64) float64 {
	return btcutil.Amount(satoshi).ToBTC()
}

// BtcToSatoshi converts a node reported amount, rounding to the nearest satoshi.
func BtcToSatoshi(btc float64) int64 {
	amount, err := btcutil.NewAmount(btc)
	if err != nil {
		// NaN or Inf
		return 0
	}
	return int64(amount)
}

// FeeRateToSatPerVByte converts an estimatesmartfee rate (BTC per kvB)
// to satoshi per vbyte, rounding up. Never lower than MinFeeRateSatV.
func FeeRateToSatPerVByte(btcPerKvB float64) int64 {
	rate := decimal.NewFromFloat(btcPerKvB).Mul(satPerBtc).Div(vbytesPerKvB).Ceil().IntPart()
	if rate < MinFeeRateSatV {
		return MinFeeRateSatV
	}
	return rate
}
