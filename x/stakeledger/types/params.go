package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/internal/pct"
)

// RoleMinimums holds the per-role stake floor, always updated together.
type RoleMinimums struct {
	Agent     sdkmath.Int `json:"agent"`
	Validator sdkmath.Int `json:"validator"`
	Platform  sdkmath.Int `json:"platform"`
}

// For returns the minimum of role.
func (m RoleMinimums) For(role Role) sdkmath.Int {
	var v sdkmath.Int
	switch role {
	case RoleAgent:
		v = m.Agent
	case RoleValidator:
		v = m.Validator
	case RolePlatform:
		v = m.Platform
	}
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

func (m RoleMinimums) Validate() error {
	for _, role := range Roles {
		if m.For(role).IsNegative() {
			return errorsmod.Wrapf(ErrInvalidAmount, "%s minimum cannot be negative", role)
		}
	}
	return nil
}

// SlashingSplit divides slashed stake between employer and treasury in whole
// percentages summing to 100.
type SlashingSplit struct {
	EmployerPct uint32 `json:"employer_pct"`
	TreasuryPct uint32 `json:"treasury_pct"`
}

func (s SlashingSplit) Validate() error {
	if s.EmployerPct+s.TreasuryPct != pct.Hundred {
		return errorsmod.Wrapf(pct.ErrInvalidPercentages, "slashing split %d/%d must sum to 100", s.EmployerPct, s.TreasuryPct)
	}
	return nil
}

// DefaultMinStake is 2500 whole tokens.
func DefaultMinStake() sdkmath.Int {
	return sdkmath.NewIntWithDecimal(2500, 18)
}

// DefaultSlashingSplit sends 95% of a slash to the employer.
func DefaultSlashingSplit() SlashingSplit {
	return SlashingSplit{EmployerPct: 95, TreasuryPct: 5}
}
