package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBtcToSatoshi(t *testing.T) {
	assert.Equal(t, int64(50000), BtcToSatoshi(0.0005))
	// 0.29 * 1e8 is 28999999.999999996 in float64
	assert.Equal(t, int64(29000000), BtcToSatoshi(0.29))
	assert.Equal(t, int64(0), BtcToSatoshi(math.NaN()))
	assert.Equal(t, 0.0005, SatoshiToBtc(50000))
}

func TestFeeRateToSatPerVByte(t *testing.T) {
	assert.Equal(t, int64(1), FeeRateToSatPerVByte(0.00001))
	assert.Equal(t, int64(25), FeeRateToSatPerVByte(0.00025))
	assert.Equal(t, int64(26), FeeRateToSatPerVByte(0.000251))
	assert.Equal(t, int64(1), FeeRateToSatPerVByte(0))
	assert.Equal(t, int64(1), FeeRateToSatPerVByte(-0.5))
}

func TestNormalizeTxID(t *testing.T) {
	assert.Equal(t, "abcd", NormalizeTxID(" 0xABCD "))
	assert.Equal(t, "abcd", Remove0xPrefix("0xabcd"))
}
