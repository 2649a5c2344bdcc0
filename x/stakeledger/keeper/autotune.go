package keeper

import (
	"context"
	"strconv"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// CheckpointStake samples the Hamiltonian feed and moves the minimum stake by
// the configured percentage of its current value. Anyone may call it. It is a
// no-op while auto-tune is disabled, no feed is set, or the cooldown since the
// last checkpoint has not elapsed; otherwise the checkpoint time is recorded
// whether or not the minimum changes.
func (k Keeper) CheckpointStake(ctx context.Context, caller string) (types.CheckpointResult, error) {
	var result types.CheckpointResult
	err := sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		current, err := k.MinStake(ctx)
		if err != nil {
			return err
		}
		result = types.CheckpointResult{Previous: current, Current: current, Signal: sdkmath.ZeroInt()}

		cfg, err := k.AutoStakeConfig(ctx)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			return nil
		}
		feedAddr, err := k.HamiltonianFeed(ctx)
		if err != nil {
			return err
		}
		if feedAddr == "" {
			return nil
		}
		last, err := k.LastCheckpointTime(ctx)
		if err != nil {
			return err
		}
		now := sdkctx.Now(ctx).Unix()
		if last != 0 {
			// a clock behind the last checkpoint counts as inside the cooldown
			elapsed := now - last
			if elapsed < 0 || uint64(elapsed) < cfg.CooldownSeconds {
				return nil
			}
		}

		feed, err := k.resolveFeed(feedAddr)
		if err != nil {
			return err
		}
		signal, err := feed.Hamiltonian(ctx)
		if err != nil {
			return err
		}
		next, adjusted := cfg.NextMinStake(current, signal)
		if adjusted {
			if err := k.writeMinStake(ctx, next); err != nil {
				return err
			}
		}
		if err := k.LastCheckpoint.Set(ctx, now); err != nil {
			return err
		}

		result = types.CheckpointResult{
			Applied:  true,
			Adjusted: adjusted,
			Previous: current,
			Current:  next,
			Signal:   signal,
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeStakeCheckpoint,
			sdk.NewAttribute(types.AttributeKeySignal, signal.String()),
			sdk.NewAttribute(types.AttributeKeyPrevious, current.String()),
			sdk.NewAttribute(types.AttributeKeyMinStake, next.String()),
			sdk.NewAttribute(types.AttributeKeyApplied, strconv.FormatBool(adjusted)),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(now, 10)),
		))
		k.Logger(ctx).Info("stake checkpoint",
			"caller", caller, "signal", signal.String(), "previous", current.String(), "min_stake", next.String())
		return nil
	})
	if err != nil {
		return types.CheckpointResult{}, err
	}
	return result, nil
}
