package btcutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatoshiConversion(t *testing.T) {
	// every amount here drifts below the exact satoshi count when
	// multiplied by 1e8 in float64
	testcases := []struct {
		btc  float64
		sats int64
	}{
		{2.49999776, 249999776},
		{2.29980951, 229980951},
		{1.29609085, 129609085},
		{0.62518296, 62518296},
		{0.29998462, 29998462},
		{0.02016011, 2016011},
		{0.0051711, 517110},
		{3.835e-05, 3835},
		{1.962e-05, 1962},
	}
	for _, testcase := range testcases {
		t.Run(fmt.Sprintf("%v", testcase.btc), func(t *testing.T) {
			require.NotEqual(t, testcase.sats, int64(testcase.btc*1e8))
			assert.Equal(t, testcase.sats, BitcoinToSatoshi(testcase.btc))
			assert.Equal(t, testcase.btc, SatoshiToBitcoin(testcase.sats))
		})
	}
}
