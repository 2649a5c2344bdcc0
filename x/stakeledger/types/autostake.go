package types

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/internal/pct"
)

// AutoStakeConfig drives the minimum-stake controller. A zero ceiling means
// the controller may raise the minimum without bound.
type AutoStakeConfig struct {
	Enabled         bool        `json:"enabled"`
	UpperThreshold  sdkmath.Int `json:"upper_threshold"`
	LowerThreshold  sdkmath.Int `json:"lower_threshold"`
	IncreasePct     uint32      `json:"increase_pct"`
	DecreasePct     uint32      `json:"decrease_pct"`
	CooldownSeconds uint64      `json:"cooldown_seconds"`
	FloorMinStake   sdkmath.Int `json:"floor_min_stake"`
	CeilingMinStake sdkmath.Int `json:"ceiling_min_stake"`
}

// DefaultAutoStakeConfig is disabled with a one day cooldown.
func DefaultAutoStakeConfig() AutoStakeConfig {
	return AutoStakeConfig{
		UpperThreshold:  sdkmath.ZeroInt(),
		LowerThreshold:  sdkmath.ZeroInt(),
		CooldownSeconds: 86_400,
		FloorMinStake:   sdkmath.ZeroInt(),
		CeilingMinStake: sdkmath.ZeroInt(),
	}
}

// Normalize replaces nil amounts with zero.
func (c AutoStakeConfig) Normalize() AutoStakeConfig {
	for _, v := range []*sdkmath.Int{&c.UpperThreshold, &c.LowerThreshold, &c.FloorMinStake, &c.CeilingMinStake} {
		if v.IsNil() {
			*v = sdkmath.ZeroInt()
		}
	}
	return c
}

func (c AutoStakeConfig) Validate() error {
	c = c.Normalize()
	if c.UpperThreshold.IsNegative() || c.LowerThreshold.IsNegative() {
		return errorsmod.Wrap(ErrInvalidAutoStakeConfig, "thresholds cannot be negative")
	}
	if c.LowerThreshold.GT(c.UpperThreshold) {
		return errorsmod.Wrapf(ErrInvalidAutoStakeConfig, "lower threshold %s exceeds upper threshold %s", c.LowerThreshold, c.UpperThreshold)
	}
	if err := pct.Validate("increase_pct", c.IncreasePct); err != nil {
		return errorsmod.Wrap(ErrInvalidAutoStakeConfig, err.Error())
	}
	if err := pct.Validate("decrease_pct", c.DecreasePct); err != nil {
		return errorsmod.Wrap(ErrInvalidAutoStakeConfig, err.Error())
	}
	if c.CooldownSeconds > math.MaxInt64 {
		return errorsmod.Wrapf(ErrInvalidAutoStakeConfig, "cooldown %d seconds exceeds %d", c.CooldownSeconds, int64(math.MaxInt64))
	}
	if c.FloorMinStake.IsNegative() || c.CeilingMinStake.IsNegative() {
		return errorsmod.Wrap(ErrInvalidAutoStakeConfig, "floor and ceiling cannot be negative")
	}
	if c.CeilingMinStake.IsPositive() && c.CeilingMinStake.LT(c.FloorMinStake) {
		return errorsmod.Wrapf(ErrInvalidAutoStakeConfig, "ceiling %s below floor %s", c.CeilingMinStake, c.FloorMinStake)
	}
	return nil
}

// NextMinStake applies one controller step to current for signal and reports
// whether the value changed.
func (c AutoStakeConfig) NextMinStake(current, signal sdkmath.Int) (sdkmath.Int, bool) {
	c = c.Normalize()
	switch {
	case signal.GT(c.UpperThreshold):
		base := sdkmath.MaxInt(current, c.FloorMinStake)
		next := pct.Increase(base, c.IncreasePct)
		if c.CeilingMinStake.IsPositive() && next.GT(c.CeilingMinStake) {
			next = c.CeilingMinStake
		}
		return next, !next.Equal(current)
	case signal.LT(c.LowerThreshold) && current.GT(c.FloorMinStake):
		next := sdkmath.MaxInt(pct.Decrease(current, c.DecreasePct), c.FloorMinStake)
		return next, !next.Equal(current)
	default:
		return current, false
	}
}

// CheckpointResult reports what a checkpoint observed and did. Applied is
// set when the checkpoint sampled the feed and recorded its timestamp;
// Adjusted when the minimum stake changed as a result.
type CheckpointResult struct {
	Applied  bool        `json:"applied"`
	Adjusted bool        `json:"adjusted"`
	Previous sdkmath.Int `json:"previous"`
	Current  sdkmath.Int `json:"current"`
	Signal   sdkmath.Int `json:"signal"`
}
