// Package pct centralizes the basis-point and percentage arithmetic used by
// every governance setter. Percentages are whole numbers in [0, 100]; basis
// points are accepted only in multiples of 100.
package pct

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

const codespace = "pct"

var ErrInvalidPercentages = errorsmod.Register(codespace, 2, "invalid percentages")

const (
	// Hundred is 100%.
	Hundred uint32 = 100
	// BpsBase is 100% in basis points.
	BpsBase uint32 = 10_000
)

// FromBps converts basis points to a whole percentage.
func FromBps(label string, bps uint32) (uint32, error) {
	if bps%100 != 0 {
		return 0, errorsmod.Wrapf(ErrInvalidPercentages, "%s must be a multiple of 100 basis points, got %d", label, bps)
	}
	if bps > BpsBase {
		return 0, errorsmod.Wrapf(ErrInvalidPercentages, "%s %d exceeds 100%%", label, bps)
	}
	return bps / 100, nil
}

// ToBps converts a whole percentage to basis points.
func ToBps(p uint32) uint32 { return p * 100 }

// Validate checks that p is a whole percentage.
func Validate(label string, p uint32) error {
	if p > Hundred {
		return errorsmod.Wrapf(ErrInvalidPercentages, "%s %d exceeds 100", label, p)
	}
	return nil
}

// NormalizeSplit accepts a pair of percentages summing to 100, or a pair of
// basis points summing to 10000, and returns the pair as percentages.
func NormalizeSplit(a, b uint32) (uint32, uint32, error) {
	switch {
	case uint64(a)+uint64(b) == uint64(Hundred):
		return a, b, nil
	case uint64(a)+uint64(b) == uint64(BpsBase):
		pa, err := FromBps("first share", a)
		if err != nil {
			return 0, 0, err
		}
		pb, err := FromBps("second share", b)
		if err != nil {
			return 0, 0, err
		}
		return pa, pb, nil
	default:
		return 0, 0, errorsmod.Wrapf(ErrInvalidPercentages, "split %d/%d must sum to 100 or 10000", a, b)
	}
}

// Portion returns floor(amount*p/100).
func Portion(amount sdkmath.Int, p uint32) sdkmath.Int {
	if amount.IsNil() || amount.IsZero() || p == 0 {
		return sdkmath.ZeroInt()
	}
	return amount.MulRaw(int64(p)).QuoRaw(int64(Hundred))
}

// Split divides amount into floor(amount*p/100) and the remainder, so the two
// parts always add back to amount.
func Split(amount sdkmath.Int, p uint32) (sdkmath.Int, sdkmath.Int) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt()
	}
	part := Portion(amount, p)
	return part, amount.Sub(part)
}

// Increase returns value + floor(value*p/100).
func Increase(value sdkmath.Int, p uint32) sdkmath.Int {
	return value.Add(Portion(value, p))
}

// Decrease returns value - floor(value*p/100), floored at zero.
func Decrease(value sdkmath.Int, p uint32) sdkmath.Int {
	out := value.Sub(Portion(value, p))
	if out.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return out
}
