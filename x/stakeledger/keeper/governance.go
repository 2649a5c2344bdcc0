package keeper

import (
	"context"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/pct"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// Governance setters require the owner and stay callable while the ledger is
// paused.

// SetRoleMinimums replaces all three role minimums in one write.
func (k Keeper) SetRoleMinimums(ctx context.Context, caller string, agent, validator, platform sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		mins := types.RoleMinimums{Agent: agent, Validator: validator, Platform: platform}
		for _, role := range types.Roles {
			v := mins.For(role)
			if v.IsNegative() {
				return errorsmod.Wrapf(types.ErrInvalidAmount, "%s minimum cannot be negative", role)
			}
			if err := k.RoleMinimums.Set(ctx, uint32(role), v); err != nil {
				return err
			}
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeRoleMinimumsUpdated,
			sdk.NewAttribute(types.AttributeKeyAgentMin, mins.For(types.RoleAgent).String()),
			sdk.NewAttribute(types.AttributeKeyValidatorMin, mins.For(types.RoleValidator).String()),
			sdk.NewAttribute(types.AttributeKeyPlatformMin, mins.For(types.RolePlatform).String()),
		))
		k.Logger(ctx).Info("role minimums updated",
			"agent", mins.For(types.RoleAgent).String(),
			"validator", mins.For(types.RoleValidator).String(),
			"platform", mins.For(types.RolePlatform).String())
		return nil
	})
}

// SetMinStake sets the global minimum stake.
func (k Keeper) SetMinStake(ctx context.Context, caller string, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		return k.writeMinStake(ctx, amount)
	})
}

func (k Keeper) writeMinStake(ctx sdk.Context, amount sdkmath.Int) error {
	previous, err := k.MinStake(ctx)
	if err != nil {
		return err
	}
	if err := k.MinStakeValue.Set(ctx, amount); err != nil {
		return err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeMinStakeUpdated,
		sdk.NewAttribute(types.AttributeKeyPrevious, previous.String()),
		sdk.NewAttribute(types.AttributeKeyMinStake, amount.String()),
	))
	return nil
}

// SetSlashingPercentages sets the employer/treasury split. The pair may be
// given in percentages summing to 100 or basis points summing to 10000.
func (k Keeper) SetSlashingPercentages(ctx context.Context, caller string, employerPct, treasuryPct uint32) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		e, t, err := pct.NormalizeSplit(employerPct, treasuryPct)
		if err != nil {
			return err
		}
		if err := k.setSlashingSplit(ctx, types.SlashingSplit{EmployerPct: e, TreasuryPct: t}); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeSlashingPctUpdated,
			sdk.NewAttribute(types.AttributeKeyEmployerPct, strconv.FormatUint(uint64(e), 10)),
			sdk.NewAttribute(types.AttributeKeyTreasuryPct, strconv.FormatUint(uint64(t), 10)),
		))
		return nil
	})
}

// ConfigureAutoStake replaces the auto-tune configuration.
func (k Keeper) ConfigureAutoStake(ctx context.Context, caller string, cfg types.AutoStakeConfig) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		cfg = cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := k.setAutoStakeConfig(ctx, cfg); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeAutoStakeConfigured,
			sdk.NewAttribute(types.AttributeKeyEnabled, strconv.FormatBool(cfg.Enabled)),
		))
		k.Logger(ctx).Info("auto-stake configured",
			"enabled", cfg.Enabled,
			"upper", cfg.UpperThreshold.String(),
			"lower", cfg.LowerThreshold.String(),
			"cooldown_seconds", cfg.CooldownSeconds)
		return nil
	})
}

// AutoTuneStakes switches the auto-tune controller on or off.
func (k Keeper) AutoTuneStakes(ctx context.Context, caller string, enabled bool) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		cfg, err := k.AutoStakeConfig(ctx)
		if err != nil {
			return err
		}
		cfg.Enabled = enabled
		if err := k.setAutoStakeConfig(ctx, cfg); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeAutoStakeToggled,
			sdk.NewAttribute(types.AttributeKeyEnabled, strconv.FormatBool(enabled)),
		))
		return nil
	})
}

// SetHamiltonianFeed points the controller at a signal source. The address
// must resolve to a feed that answers a probe read.
func (k Keeper) SetHamiltonianFeed(ctx context.Context, caller, addr string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return errorsmod.Wrap(types.ErrInvalidHamiltonianFeed, "feed address cannot be empty")
		}
		feed, err := k.resolveFeed(addr)
		if err != nil {
			return err
		}
		if _, err := feed.Hamiltonian(ctx); err != nil {
			return errorsmod.Wrapf(types.ErrInvalidHamiltonianFeed, "%s probe failed: %s", addr, err)
		}
		if err := k.FeedAddr.Set(ctx, addr); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeHamiltonianFeedUpdated,
			sdk.NewAttribute(types.AttributeKeyAddress, addr),
		))
		return nil
	})
}

func (k Keeper) resolveFeed(addr string) (types.HamiltonianFeed, error) {
	if k.resolver == nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidHamiltonianFeed, "%s cannot be resolved", addr)
	}
	contract, ok := k.resolver.Lookup(addr)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidHamiltonianFeed, "%s is not registered", addr)
	}
	feed, ok := contract.(types.HamiltonianFeed)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidHamiltonianFeed, "%s is not a signal source", addr)
	}
	return feed, nil
}

// SetTreasury sets the slash recipient. The address must already be
// allowlisted.
func (k Keeper) SetTreasury(ctx context.Context, caller, addr string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		addr = strings.TrimSpace(addr)
		allowed, err := k.IsTreasuryAllowlisted(ctx, addr)
		if err != nil {
			return err
		}
		if addr == "" || !allowed {
			return errorsmod.Wrapf(types.ErrTreasuryNotAllowlisted, "%q", addr)
		}
		if err := k.TreasuryAddr.Set(ctx, addr); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeTreasuryUpdated,
			sdk.NewAttribute(types.AttributeKeyTreasury, addr),
		))
		return nil
	})
}

// SetTreasuryAllowlist adds or removes addr from the treasury allowlist.
func (k Keeper) SetTreasuryAllowlist(ctx context.Context, caller, addr string, allowed bool) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return errorsmod.Wrap(types.ErrInvalidAddress, "treasury cannot be empty")
		}
		var err error
		if allowed {
			err = k.TreasuryAllowlist.Set(ctx, addr)
		} else {
			err = k.TreasuryAllowlist.Remove(ctx, addr)
		}
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeTreasuryAllowlisted,
			sdk.NewAttribute(types.AttributeKeyAddress, addr),
			sdk.NewAttribute(types.AttributeKeyAllowed, strconv.FormatBool(allowed)),
		))
		return nil
	})
}

// SetJobRegistry registers the module allowed to lock and slash stake.
func (k Keeper) SetJobRegistry(ctx context.Context, caller, addr string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		return k.setModule(ctx, "job_registry", k.JobRegistry.Set, addr)
	})
}

// SetDisputeModule registers the dispute module allowed to slash stake.
func (k Keeper) SetDisputeModule(ctx context.Context, caller, addr string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		return k.setModule(ctx, "dispute_module", k.DisputeModule.Set, addr)
	})
}

// SetModules registers the job registry and dispute module together.
func (k Keeper) SetModules(ctx context.Context, caller, jobRegistry, disputeModule string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if err := k.setModule(ctx, "job_registry", k.JobRegistry.Set, jobRegistry); err != nil {
			return err
		}
		return k.setModule(ctx, "dispute_module", k.DisputeModule.Set, disputeModule)
	})
}

func (k Keeper) setModule(ctx sdk.Context, name string, set func(context.Context, string) error, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errorsmod.Wrapf(types.ErrInvalidAddress, "%s cannot be empty", name)
	}
	if err := set(ctx, addr); err != nil {
		return err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeModuleUpdated,
		sdk.NewAttribute(types.AttributeKeyModule, name),
		sdk.NewAttribute(types.AttributeKeyAddress, addr),
	))
	return nil
}
