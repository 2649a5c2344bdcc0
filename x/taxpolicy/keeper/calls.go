package keeper

import (
	"context"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

func (k Keeper) newRouter() *govcall.Dispatcher {
	d := govcall.NewDispatcher(types.ModuleName)
	govcall.Handle(d, types.MethodSetPolicyURI, func(ctx context.Context, caller string, a types.SetPolicyURIArgs) error {
		return k.SetPolicyURI(ctx, caller, a.URI)
	})
	govcall.Handle(d, types.MethodSetAcknowledgement, func(ctx context.Context, caller string, a types.SetAcknowledgementArgs) error {
		return k.SetAcknowledgement(ctx, caller, a.Text)
	})
	govcall.Handle(d, types.MethodSetPolicy, func(ctx context.Context, caller string, a types.SetPolicyArgs) error {
		return k.SetPolicy(ctx, caller, a.URI, a.Text)
	})
	govcall.Handle(d, types.MethodSetAcknowledger, func(ctx context.Context, caller string, a types.SetAcknowledgerArgs) error {
		return k.SetAcknowledger(ctx, caller, a.Acknowledger, a.Allowed)
	})
	govcall.Handle(d, types.MethodTransferOwnership, func(ctx context.Context, caller string, a types.AddressArgs) error {
		return k.TransferOwnership(ctx, caller, a.Address)
	})
	govcall.HandleNoArgs(d, types.MethodAcceptOwnership, k.AcceptOwnership)
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
