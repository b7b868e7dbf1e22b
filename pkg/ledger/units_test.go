package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"1500000000000000000", "1.5"},
		{"500000000000000000000000000", "500000000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatUnits(uint256.MustFromDecimal(tc.in), Decimals), tc.in)
	}
	assert.Equal(t, "0", FormatUnits(nil, Decimals))
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000")
	require.NoError(t, err)
	assert.True(t, v.Eq(uint256.NewInt(1000)))

	for _, bad := range []string{"", "-1", "1.5", "0x10", "abc"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}

	_, err = ParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	assert.Error(t, err)
}

func TestMaxRawSupply(t *testing.T) {
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457", MaxRawSupply.Dec())
}
