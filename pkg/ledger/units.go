package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the fixed number of fractional digits of every ledger amount.
const Decimals uint8 = 18

// unit is 10^Decimals, the number of base units in one whole token.
var unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(Decimals)))

// MaxRawSupply is the largest raw supply that ScaleSupply accepts.
var MaxRawSupply = new(uint256.Int).Div(new(uint256.Int).SetAllOne(), unit)

// ScaleSupply converts a whole-token supply into base units (raw × 10^18).
func ScaleSupply(raw *uint256.Int) (*uint256.Int, error) {
	if raw == nil {
		return new(uint256.Int), nil
	}
	scaled, overflow := new(uint256.Int).MulOverflow(raw, unit)
	if overflow {
		return nil, fmt.Errorf("%w: raw supply %s exceeds %s", ErrOverflow, raw.Dec(), MaxRawSupply.Dec())
	}
	return scaled, nil
}

// ParseAmount parses a base-10 integer amount of base units.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("parse amount: empty string")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// FormatUnits renders an amount of base units as a whole-token decimal
// string, e.g. 1500000000000000000 with 18 decimals becomes "1.5".
func FormatUnits(v *uint256.Int, decimals uint8) string {
	return ToDecimal(v, decimals).String()
}

// ToDecimal converts base units into a whole-token decimal.
func ToDecimal(v *uint256.Int, decimals uint8) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals))
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
