package pct_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/pct"
)

func TestFromBps(t *testing.T) {
	p, err := pct.FromBps("burn", 300)
	require.NoError(t, err)
	require.Equal(t, uint32(3), p)

	p, err = pct.FromBps("burn", 10_000)
	require.NoError(t, err)
	require.Equal(t, uint32(100), p)

	_, err = pct.FromBps("burn", 250)
	require.ErrorIs(t, err, pct.ErrInvalidPercentages)
	require.Contains(t, err.Error(), "multiple of 100")

	_, err = pct.FromBps("burn", 10_100)
	require.ErrorIs(t, err, pct.ErrInvalidPercentages)
}

func TestNormalizeSplit(t *testing.T) {
	cases := []struct {
		name     string
		a, b     uint32
		wantA    uint32
		wantB    uint32
		rejected bool
	}{
		{name: "percent", a: 95, b: 5, wantA: 95, wantB: 5},
		{name: "bps", a: 9500, b: 500, wantA: 95, wantB: 5},
		{name: "all to treasury", a: 0, b: 100, wantA: 0, wantB: 100},
		{name: "bps not multiple", a: 9550, b: 450, rejected: true},
		{name: "bad sum", a: 60, b: 60, rejected: true},
		{name: "zero", a: 0, b: 0, rejected: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b, err := pct.NormalizeSplit(tc.a, tc.b)
			if tc.rejected {
				require.ErrorIs(t, err, pct.ErrInvalidPercentages)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantA, a)
			require.Equal(t, tc.wantB, b)
		})
	}
}

func TestSplitIsRemainderSafe(t *testing.T) {
	for _, amount := range []int64{0, 1, 7, 99, 101, 1_000_003} {
		for _, p := range []uint32{0, 1, 33, 50, 95, 100} {
			a := sdkmath.NewInt(amount)
			part, rest := pct.Split(a, p)
			require.True(t, part.Add(rest).Equal(a))
			require.True(t, part.Equal(a.MulRaw(int64(p)).QuoRaw(100)))
		}
	}
}

func TestIncreaseDecrease(t *testing.T) {
	m := sdkmath.NewInt(1000)
	require.Equal(t, "1100", pct.Increase(m, 10).String())
	require.Equal(t, "900", pct.Decrease(m, 10).String())
	require.True(t, pct.Decrease(m, 100).IsZero())
	require.True(t, pct.Increase(m, 0).Equal(m))
}
