// Package sdkctx collects the small sdk.Context helpers every kernel keeper
// needs: deterministic time, best-effort event emission and branched
// execution.
package sdkctx

import (
	"context"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Unwrap returns the sdk.Context carried by ctx, if any.
func Unwrap(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

// Now returns the block time when ctx carries a block header and the wall
// clock otherwise.
func Now(ctx context.Context) time.Time {
	if sdkCtx, ok := Unwrap(ctx); ok && !sdkCtx.BlockTime().IsZero() {
		return sdkCtx.BlockTime().UTC()
	}
	return time.Now().UTC()
}

// EmitEvent emits event on the context event manager when one is present.
func EmitEvent(ctx context.Context, event sdk.Event) {
	sdkCtx, ok := Unwrap(ctx)
	if !ok {
		return
	}
	if em := sdkCtx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}

// RunAtomic executes fn against a branch of the multistore. Writes and events
// reach the parent context only when fn returns nil, so a failing call leaves
// no partial state behind.
func RunAtomic(ctx context.Context, fn func(ctx sdk.Context) error) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}
