package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/x/feepool/types"
)

func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Ownable.Import(ctx, gs.Ownership); err != nil {
		return err
	}
	if err := k.BurnPctValue.Set(ctx, gs.BurnPct); err != nil {
		return err
	}
	for _, addr := range gs.TreasuryAllowlist {
		if err := k.TreasuryAllowlist.Set(ctx, addr); err != nil {
			return err
		}
	}
	if gs.Treasury != "" {
		if err := k.TreasuryAddr.Set(ctx, gs.Treasury); err != nil {
			return err
		}
	}
	for _, c := range gs.Contributors {
		if err := k.Contributors.Set(ctx, c); err != nil {
			return err
		}
	}
	if !gs.PendingFees.IsNil() {
		return k.PendingFees.Set(ctx, gs.PendingFees)
	}
	return nil
}

func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	snap, err := k.Ownable.Export(ctx)
	if err != nil {
		return nil, err
	}
	gs := types.DefaultGenesis(snap.Owner)
	gs.Ownership = snap
	if gs.BurnPct, err = k.BurnPct(ctx); err != nil {
		return nil, err
	}
	if gs.Treasury, err = k.Treasury(ctx); err != nil {
		return nil, err
	}
	if gs.PendingFees, err = k.Pending(ctx); err != nil {
		return nil, err
	}
	if err := k.TreasuryAllowlist.Walk(ctx, nil, func(addr string) (bool, error) {
		gs.TreasuryAllowlist = append(gs.TreasuryAllowlist, addr)
		return false, nil
	}); err != nil {
		return nil, err
	}
	err = k.Contributors.Walk(ctx, nil, func(addr string) (bool, error) {
		gs.Contributors = append(gs.Contributors, addr)
		return false, nil
	})
	return gs, err
}
