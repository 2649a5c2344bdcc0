package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/x/token/types"
)

// InitGenesis credits the genesis balances and sets the matching supply.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	supply := sdkmath.ZeroInt()
	for _, b := range gs.Balances {
		if err := k.Balances.Set(ctx, b.Address, b.Amount); err != nil {
			return err
		}
		supply = supply.Add(b.Amount)
	}
	return k.Supply.Set(ctx, supply)
}

// ExportGenesis returns every non-zero balance.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	err := k.Balances.Walk(ctx, nil, func(addr string, amount sdkmath.Int) (bool, error) {
		gs.Balances = append(gs.Balances, types.Balance{Address: addr, Amount: amount})
		return false, nil
	})
	return gs, err
}
