package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Ownable.Import(ctx, gs.Ownership); err != nil {
		return err
	}
	if err := k.PolicyURI.Set(ctx, gs.PolicyURI); err != nil {
		return err
	}
	if err := k.Acknowledgement.Set(ctx, gs.Acknowledgement); err != nil {
		return err
	}
	if err := k.Version.Set(ctx, gs.Version); err != nil {
		return err
	}
	for _, a := range gs.Acknowledgers {
		if err := k.Acknowledgers.Set(ctx, a); err != nil {
			return err
		}
	}
	for _, a := range gs.Acknowledged {
		if err := k.Acknowledged.Set(ctx, a.Account, a.Version); err != nil {
			return err
		}
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
	if gs.PolicyURI, gs.Acknowledgement, err = k.Policy(ctx); err != nil {
		return nil, err
	}
	if gs.Version, err = k.CurrentVersion(ctx); err != nil {
		return nil, err
	}
	if err := k.Acknowledgers.Walk(ctx, nil, func(a string) (bool, error) {
		gs.Acknowledgers = append(gs.Acknowledgers, a)
		return false, nil
	}); err != nil {
		return nil, err
	}
	err = k.Acknowledged.Walk(ctx, nil, func(account string, version uint64) (bool, error) {
		gs.Acknowledged = append(gs.Acknowledged, types.Acknowledgment{Account: account, Version: version})
		return false, nil
	})
	return gs, err
}
