package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/x/feepool/types"
)

func (k Keeper) newRouter() *govcall.Dispatcher {
	d := govcall.NewDispatcher(types.ModuleName)
	govcall.Handle(d, types.MethodSetBurnPct, func(ctx context.Context, caller string, a types.SetBurnPctArgs) error {
		return k.SetBurnPct(ctx, caller, a.Pct)
	})
	govcall.Handle(d, types.MethodSetTreasury, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetTreasury(ctx, caller, a.Address)
	})
	govcall.Handle(d, types.MethodSetTreasuryAllowlist, func(ctx context.Context, caller string, a types.AllowlistArgs) error {
		return k.SetTreasuryAllowlist(ctx, caller, a.Address, a.Allowed)
	})
	govcall.Handle(d, types.MethodSetContributor, func(ctx context.Context, caller string, a types.AllowlistArgs) error {
		return k.SetContributor(ctx, caller, a.Address, a.Allowed)
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
