package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "sovereign-1", cfg.ChainID)
	require.Equal(t, uint32(95), cfg.EmployerSlashPct)
	require.Equal(t, uint32(5), cfg.TreasurySlashPct)
	require.Equal(t, uint32(1), cfg.BurnPct)
	require.Equal(t, 24*time.Hour, cfg.AutoStakeCooldown)
	require.True(t, cfg.InvariantsOnApply)
	require.Empty(t, cfg.AuditSinkPath)

	amount, err := cfg.MinStakeAmount()
	require.NoError(t, err)
	require.Equal(t, "2500000000000000000000", amount.String())
}

func TestParseConfigFromOverrides(t *testing.T) {
	cfg, err := ParseConfigFrom(map[string]string{
		"KERNEL_BURN_PCT":               "3",
		"KERNEL_SLASH_EMPLOYER_PCT":     "80",
		"KERNEL_SLASH_TREASURY_PCT":     "20",
		"KERNEL_AUTOSTAKE_COOLDOWN":     "90m",
		"KERNEL_INVARIANTS_ON_APPLY":    "false",
		"KERNEL_AUTOSTAKE_INCREASE_PCT": "25",
	})
	require.NoError(t, err)
	require.Equal(t, uint32(3), cfg.BurnPct)
	require.Equal(t, uint32(80), cfg.EmployerSlashPct)
	require.Equal(t, 90*time.Minute, cfg.AutoStakeCooldown)
	require.False(t, cfg.InvariantsOnApply)
	require.Equal(t, uint32(25), cfg.AutoStakeIncreasePct)
}

func TestParseConfigFromRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"split not 100":     {"KERNEL_SLASH_EMPLOYER_PCT": "90"},
		"burn above 100":    {"KERNEL_BURN_PCT": "101"},
		"zero min stake":    {"KERNEL_MIN_STAKE": "0"},
		"decimal min stake": {"KERNEL_MIN_STAKE": "1.5"},
		"empty chain id":    {"KERNEL_CHAIN_ID": " "},
		"step above 100":    {"KERNEL_AUTOSTAKE_DECREASE_PCT": "150"},
		"negative cache":    {"KERNEL_AUDIT_SINK_CACHE": "-1"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfigFrom(vars)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := ParseConfigFrom(map[string]string{"KERNEL_AUTOSTAKE_COOLDOWN": "soon"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidConfig)
}
