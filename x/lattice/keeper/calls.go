package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/x/lattice/types"
)

func (k Keeper) newRouter() *govcall.Dispatcher {
	d := govcall.NewDispatcher(types.ModuleName)
	govcall.Handle(d, types.MethodSetModules, func(ctx context.Context, caller string, a types.SetModulesArgs) error {
		return k.SetModules(ctx, caller, a.Modules)
	})
	govcall.Handle(d, types.MethodSetGlobalPauser, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.SetGlobalPauser(ctx, caller, a.Address)
	})
	govcall.HandleNoArgs(d, types.MethodRefreshPausers, k.RefreshPausers)
	govcall.Handle(d, types.MethodExecuteGovernanceCall, func(ctx context.Context, caller string, a types.ExecuteGovernanceCallArgs) error {
		return k.ExecuteGovernanceCall(ctx, caller, a.Target, a.Payload)
	})
	govcall.HandleNoArgs(d, types.MethodPauseAll, k.PauseAll)
	govcall.HandleNoArgs(d, types.MethodUnpauseAll, k.UnpauseAll)
	govcall.Handle(d, types.MethodTransferOwnership, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.TransferOwnership(ctx, caller, a.Address)
	})
	return d
}

// Call lets the configuration batcher drive the lattice with payloads.
func (k Keeper) Call(ctx context.Context, caller string, payload []byte) error {
	return k.router.Dispatch(ctx, caller, payload)
}

// GovernanceCall builds an executeGovernanceCall payload wrapping inner.
func GovernanceCall(target string, inner []byte) ([]byte, error) {
	return govcall.Encode(types.MethodExecuteGovernanceCall, types.ExecuteGovernanceCallArgs{
		Target:  target,
		Payload: inner,
	})
}
