package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// InitGenesis loads the ledger. Stake balances must already be backed by
// token balances held at the ledger address.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Ownable.Import(ctx, gs.Ownership); err != nil {
		return err
	}
	if err := k.MinStakeValue.Set(ctx, gs.MinStake); err != nil {
		return err
	}
	for _, role := range types.Roles {
		if err := k.RoleMinimums.Set(ctx, uint32(role), gs.RoleMinimums.For(role)); err != nil {
			return err
		}
	}
	if err := k.setSlashingSplit(ctx, gs.SlashingSplit); err != nil {
		return err
	}
	for _, addr := range gs.TreasuryAllowlist {
		if err := k.TreasuryAllowlist.Set(ctx, addr); err != nil {
			return err
		}
	}
	for _, field := range []struct {
		item  collections.Item[string]
		value string
	}{
		{k.TreasuryAddr, gs.Treasury},
		{k.JobRegistry, gs.JobRegistry},
		{k.DisputeModule, gs.DisputeModule},
		{k.FeedAddr, gs.HamiltonianFeed},
	} {
		if field.value == "" {
			continue
		}
		if err := field.item.Set(ctx, field.value); err != nil {
			return err
		}
	}
	if err := k.setAutoStakeConfig(ctx, gs.AutoStake); err != nil {
		return err
	}
	if gs.LastCheckpoint != 0 {
		if err := k.LastCheckpoint.Set(ctx, gs.LastCheckpoint); err != nil {
			return err
		}
	}
	for _, s := range gs.Stakes {
		if err := k.credit(ctx, s.Account, s.Role, s.Balance); err != nil {
			return err
		}
		if !s.Locked.IsNil() && s.Locked.IsPositive() {
			if err := k.setLock(ctx, s.Account, s.Role, s.Locked); err != nil {
				return err
			}
		}
	}
	for _, account := range gs.Acknowledged {
		if err := k.Acknowledged.Set(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis dumps the ledger state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	snap, err := k.Ownable.Export(ctx)
	if err != nil {
		return nil, err
	}
	gs := types.DefaultGenesis(snap.Owner)
	gs.Ownership = snap
	if gs.MinStake, err = k.MinStake(ctx); err != nil {
		return nil, err
	}
	if gs.RoleMinimums, err = k.RoleMinimumsOf(ctx); err != nil {
		return nil, err
	}
	if gs.SlashingSplit, err = k.SlashingPercentages(ctx); err != nil {
		return nil, err
	}
	if gs.Treasury, err = k.Treasury(ctx); err != nil {
		return nil, err
	}
	if gs.JobRegistry, err = k.JobRegistryAddress(ctx); err != nil {
		return nil, err
	}
	if gs.DisputeModule, err = k.DisputeModuleAddress(ctx); err != nil {
		return nil, err
	}
	if gs.HamiltonianFeed, err = k.HamiltonianFeed(ctx); err != nil {
		return nil, err
	}
	if gs.AutoStake, err = k.AutoStakeConfig(ctx); err != nil {
		return nil, err
	}
	if gs.LastCheckpoint, err = k.LastCheckpointTime(ctx); err != nil {
		return nil, err
	}
	if err := k.TreasuryAllowlist.Walk(ctx, nil, func(addr string) (bool, error) {
		gs.TreasuryAllowlist = append(gs.TreasuryAllowlist, addr)
		return false, nil
	}); err != nil {
		return nil, err
	}
	if err := k.Stakes.Walk(ctx, nil, func(key collections.Pair[string, uint32], bal sdkmath.Int) (bool, error) {
		locked, err := getInt(ctx, k.Locks, key)
		if err != nil {
			return true, err
		}
		gs.Stakes = append(gs.Stakes, types.StakeEntry{
			Account: key.K1(),
			Role:    types.Role(key.K2()),
			Balance: bal,
			Locked:  locked,
		})
		return false, nil
	}); err != nil {
		return nil, err
	}
	err = k.Acknowledged.Walk(ctx, nil, func(account string) (bool, error) {
		gs.Acknowledged = append(gs.Acknowledged, account)
		return false, nil
	})
	return gs, err
}
