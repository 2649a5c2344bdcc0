package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/x/lattice/types"
)

func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "wired-modules-owned", WiredModulesOwnedInvariant(k))
}

// WiredModulesOwnedInvariant checks that the lattice still owns every module
// it has wired. Governance calls cannot break this, so a report points at
// imported state or a keeper called outside the lattice.
func WiredModulesOwnedInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		statuses, err := k.ModuleStatuses(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "wired-modules-owned", err.Error()), true
		}
		var msg string
		broken := false
		for _, s := range statuses {
			if s.Owner != k.address {
				msg += fmt.Sprintf("module %s is owned by %q\n", s.Address, s.Owner)
				broken = true
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "wired-modules-owned", msg), broken
	}
}
