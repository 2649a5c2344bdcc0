package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/x/feepool/types"
)

// RegisterInvariants registers the fee pool invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "pending-backed", PendingBackedInvariant(k))
}

// PendingBackedInvariant checks that pending fees are held by the pool.
func PendingBackedInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pending, err := k.Pending(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "pending-backed", err.Error()), true
		}
		held, err := k.token.BalanceOf(ctx, k.address)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "pending-backed", err.Error()), true
		}
		if pending.GT(held) {
			msg := "INVARIANT BROKEN: pending fees " + pending.String() + " exceed pool balance " + held.String() + "\n"
			return sdk.FormatInvariant(types.ModuleName, "pending-backed", msg), true
		}
		return sdk.FormatInvariant(types.ModuleName, "pending-backed", ""), false
	}
}
