package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

func (k Keeper) newRouter() *govcall.Dispatcher {
	d := govcall.NewDispatcher(types.ModuleName)
	govcall.Handle(d, types.MethodSetRoleMinimums, func(ctx context.Context, caller string, a types.SetRoleMinimumsArgs) error {
		return k.SetRoleMinimums(ctx, caller, a.Agent, a.Validator, a.Platform)
	})
	govcall.Handle(d, types.MethodSetMinStake, func(ctx context.Context, caller string, a types.SetMinStakeArgs) error {
		return k.SetMinStake(ctx, caller, a.Amount)
	})
	govcall.Handle(d, types.MethodSetSlashingPercentages, func(ctx context.Context, caller string, a types.SetSlashingPercentagesArgs) error {
		return k.SetSlashingPercentages(ctx, caller, a.EmployerPct, a.TreasuryPct)
	})
	govcall.Handle(d, types.MethodConfigureAutoStake, k.ConfigureAutoStake)
	govcall.Handle(d, types.MethodAutoTuneStakes, func(ctx context.Context, caller string, a types.AutoTuneStakesArgs) error {
		return k.AutoTuneStakes(ctx, caller, a.Enabled)
	})
	govcall.Handle(d, types.MethodSetHamiltonianFeed, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetHamiltonianFeed(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetTreasury, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetTreasury(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetTreasuryAllowlist, func(ctx context.Context, caller string, a types.AllowlistArgs) error {
		return k.SetTreasuryAllowlist(ctx, caller, a.Address, a.Allowed)
	})
	govcall.Handle(d, types.MethodSetJobRegistry, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetJobRegistry(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetDisputeModule, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetDisputeModule(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetModules, func(ctx context.Context, caller string, a types.SetModulesArgs) error {
		return k.SetModules(ctx, caller, a.JobRegistry, a.DisputeModule)
	})
	govcall.Handle(d, types.MethodTransferOwnership, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.TransferOwnership(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetPauser, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetPauser(ctx, caller, a.Address)
	})
	govcall.HandleNoArgs(d, types.MethodPause, k.Pause)
	govcall.HandleNoArgs(d, types.MethodUnpause, k.Unpause)
	return d
}

// Call executes a governance payload on behalf of caller.
func (k Keeper) Call(ctx context.Context, caller string, payload []byte) error {
	return k.router.Dispatch(ctx, caller, payload)
}
