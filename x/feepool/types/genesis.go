package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/pct"
)

// GenesisState is the fee pool at chain start.
type GenesisState struct {
	Ownership         ownable.Snapshot `json:"ownership"`
	BurnPct           uint32           `json:"burn_pct"`
	Treasury          string           `json:"treasury"`
	TreasuryAllowlist []string         `json:"treasury_allowlist"`
	Contributors      []string         `json:"contributors"`
	PendingFees       sdkmath.Int      `json:"pending_fees"`
}

func DefaultGenesis(owner string) *GenesisState {
	return &GenesisState{
		Ownership:         ownable.Snapshot{Owner: owner},
		BurnPct:           DefaultBurnPct,
		TreasuryAllowlist: []string{},
		Contributors:      []string{},
		PendingFees:       sdkmath.ZeroInt(),
	}
}

func (gs GenesisState) Validate() error {
	if err := gs.Ownership.Validate(); err != nil {
		return err
	}
	if err := pct.Validate("burn_pct", gs.BurnPct); err != nil {
		return err
	}
	if !gs.PendingFees.IsNil() && gs.PendingFees.IsNegative() {
		return fmt.Errorf("pending fees cannot be negative")
	}
	listed := false
	for i, addr := range gs.TreasuryAllowlist {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("treasury allowlist entry %d is empty", i)
		}
		listed = listed || addr == gs.Treasury
	}
	if gs.Treasury != "" && !listed {
		return fmt.Errorf("treasury %s is not allowlisted", gs.Treasury)
	}
	for i, c := range gs.Contributors {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("contributor %d is empty", i)
		}
	}
	return nil
}
