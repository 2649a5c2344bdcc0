package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/x/lattice/types"
)

func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Ownable.InitOwner(ctx, gs.Owner); err != nil {
		return err
	}
	if err := k.Ownable.InitPauser(ctx, gs.ActivePauser); err != nil {
		return err
	}
	for i, addr := range gs.Modules {
		if err := k.Modules.Set(ctx, uint32(i), addr); err != nil {
			return err
		}
	}
	return nil
}

func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	owner, err := k.Owner(ctx)
	if err != nil {
		return nil, err
	}
	gs := types.DefaultGenesis(owner)
	if gs.ActivePauser, err = k.ActivePauser(ctx); err != nil {
		return nil, err
	}
	modules, err := k.WiredModules(ctx)
	if err != nil {
		return nil, err
	}
	gs.Modules = append(gs.Modules, modules...)
	return gs, nil
}
