package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// RegisterInvariants registers all ledger invariants with the invariant registry.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "custody-covers-stakes", CustodyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "role-totals", RoleTotalsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "locks-within-balances", LocksInvariant(k))
}

// AllInvariants runs every ledger invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{CustodyInvariant(k), RoleTotalsInvariant(k), LocksInvariant(k)} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// CustodyInvariant checks that the sum of all stake balances never exceeds
// the tokens the ledger holds.
func CustodyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		sum := sdkmath.ZeroInt()
		err := k.Stakes.Walk(ctx, nil, func(_ collections.Pair[string, uint32], bal sdkmath.Int) (bool, error) {
			sum = sum.Add(bal)
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "custody-covers-stakes", err.Error()), true
		}
		custody, err := k.Custody(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "custody-covers-stakes", err.Error()), true
		}
		if sum.GT(custody) {
			msg := fmt.Sprintf("INVARIANT BROKEN: staked %s exceeds custody %s\n", sum, custody)
			return sdk.FormatInvariant(types.ModuleName, "custody-covers-stakes", msg), true
		}
		return sdk.FormatInvariant(types.ModuleName, "custody-covers-stakes", ""), false
	}
}

// RoleTotalsInvariant checks that each role total equals the sum of its
// entries.
func RoleTotalsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		sums := make(map[uint32]sdkmath.Int, len(types.Roles))
		for _, role := range types.Roles {
			sums[uint32(role)] = sdkmath.ZeroInt()
		}
		var msg string
		broken := false
		_ = k.Stakes.Walk(ctx, nil, func(key collections.Pair[string, uint32], bal sdkmath.Int) (bool, error) {
			if bal.IsNegative() {
				msg += fmt.Sprintf("INVARIANT BROKEN: %s/%d has negative balance %s\n", key.K1(), key.K2(), bal)
				broken = true
			}
			prev, ok := sums[key.K2()]
			if !ok {
				msg += fmt.Sprintf("INVARIANT BROKEN: %s has stake under unknown role %d\n", key.K1(), key.K2())
				broken = true
				return false, nil
			}
			sums[key.K2()] = prev.Add(bal)
			return false, nil
		})
		for _, role := range types.Roles {
			total, err := k.TotalStake(ctx, role)
			if err != nil {
				msg += fmt.Sprintf("INVARIANT BROKEN: read %s total: %s\n", role, err)
				broken = true
				continue
			}
			if !total.Equal(sums[uint32(role)]) {
				msg += fmt.Sprintf("INVARIANT BROKEN: %s total %s != sum of entries %s\n", role, total, sums[uint32(role)])
				broken = true
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "role-totals", msg), broken
	}
}

// LocksInvariant checks that no lock exceeds its balance.
func LocksInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var msg string
		broken := false
		_ = k.Locks.Walk(ctx, nil, func(key collections.Pair[string, uint32], locked sdkmath.Int) (bool, error) {
			bal, err := k.Stakes.Get(ctx, key)
			if err != nil {
				bal = sdkmath.ZeroInt()
			}
			if locked.GT(bal) {
				msg += fmt.Sprintf("INVARIANT BROKEN: %s/%d locks %s of %s\n", key.K1(), key.K2(), locked, bal)
				broken = true
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "locks-within-balances", msg), broken
	}
}
