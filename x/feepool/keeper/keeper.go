package keeper

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/pct"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/feepool/types"
)

// Keeper accumulates protocol fees and periodically burns a share and sends
// the rest to the treasury.
type Keeper struct {
	storeService store.KVStoreService
	address      string
	router       *govcall.Dispatcher
	token        types.TokenKeeper

	Ownable           ownable.State
	PendingFees       collections.Item[sdkmath.Int]
	BurnPctValue      collections.Item[uint32]
	TreasuryAddr      collections.Item[string]
	TreasuryAllowlist collections.KeySet[string]
	Contributors      collections.KeySet[string]
}

var _ ownable.Governable = Keeper{}

// NewKeeper creates the fee pool keeper. Ownership transfers are single-step.
func NewKeeper(storeService store.KVStoreService, token types.TokenKeeper) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		address:      authtypes.NewModuleAddress(types.ModuleName).String(),
		token:        token,
		Ownable:      ownable.NewState(sb, types.OwnableKeyBase, types.ModuleName, false),
		PendingFees:  collections.NewItem(sb, collections.NewPrefix(types.PendingFeesKey), "pending_fees", sdk.IntValue),
		BurnPctValue: collections.NewItem(sb, collections.NewPrefix(types.BurnPctKey), "burn_pct", collections.Uint32Value),
		TreasuryAddr: collections.NewItem(sb, collections.NewPrefix(types.TreasuryKey), "treasury", collections.StringValue),
		TreasuryAllowlist: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.TreasuryAllowlistKey),
			"treasury_allowlist",
			collections.StringKey,
		),
		Contributors: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.ContributorsKey),
			"contributors",
			collections.StringKey,
		),
	}
	k.router = k.newRouter()
	return k
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

func (k Keeper) Address() string { return k.address }

func (k Keeper) Owner(ctx context.Context) (string, error) {
	return k.Ownable.GetOwner(ctx)
}

func (k Keeper) Pauser(ctx context.Context) (string, error) {
	return k.Ownable.GetPauser(ctx)
}

func (k Keeper) IsPaused(ctx context.Context) (bool, error) {
	return k.Ownable.IsPaused(ctx)
}

func (k Keeper) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.TransferOwnership(ctx, caller, newOwner)
	})
}

func (k Keeper) SetPauser(ctx context.Context, caller, pauser string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.SetPauser(ctx, caller, pauser)
	})
}

func (k Keeper) Pause(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.Pause(ctx, caller)
	})
}

func (k Keeper) Unpause(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.Unpause(ctx, caller)
	})
}

func (k Keeper) Pending(ctx context.Context) (sdkmath.Int, error) {
	v, err := k.PendingFees.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

func (k Keeper) BurnPct(ctx context.Context) (uint32, error) {
	v, err := k.BurnPctValue.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultBurnPct, nil
	}
	return v, err
}

func (k Keeper) Treasury(ctx context.Context) (string, error) {
	v, err := k.TreasuryAddr.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (k Keeper) IsTreasuryAllowlisted(ctx context.Context, addr string) (bool, error) {
	return k.TreasuryAllowlist.Has(ctx, strings.TrimSpace(addr))
}

func (k Keeper) IsContributor(ctx context.Context, addr string) (bool, error) {
	return k.Contributors.Has(ctx, strings.TrimSpace(addr))
}

// ContributeFee moves amount of caller's tokens into the pool.
func (k Keeper) ContributeFee(ctx context.Context, caller string, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		caller = strings.TrimSpace(caller)
		ok, err := k.IsContributor(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return errorsmod.Wrapf(types.ErrNotContributor, "%q", caller)
		}
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		if amount.IsNil() || !amount.IsPositive() {
			return errorsmod.Wrap(types.ErrInvalidAmount, "fee must be positive")
		}
		if err := k.token.Transfer(ctx, caller, k.address, amount); err != nil {
			return errorsmod.Wrapf(types.ErrTransferFailed, "collect from %s: %s", caller, err)
		}
		pending, err := k.Pending(ctx)
		if err != nil {
			return err
		}
		pending = pending.Add(amount)
		if err := k.PendingFees.Set(ctx, pending); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeFeeContributed,
			sdk.NewAttribute(types.AttributeKeyContributor, caller),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyPending, pending.String()),
		))
		return nil
	})
}

// Distribute burns BurnPct of the pending fees and sends the remainder to
// the treasury. Anyone may call it.
func (k Keeper) Distribute(ctx context.Context, caller string) (types.Distribution, error) {
	var out types.Distribution
	err := sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		pending, err := k.Pending(ctx)
		if err != nil {
			return err
		}
		out = types.Distribution{Burned: sdkmath.ZeroInt(), Distributed: sdkmath.ZeroInt()}
		if pending.IsZero() {
			return nil
		}
		treasury, err := k.Treasury(ctx)
		if err != nil {
			return err
		}
		allowed, err := k.IsTreasuryAllowlisted(ctx, treasury)
		if err != nil {
			return err
		}
		if treasury == "" || !allowed {
			return errorsmod.Wrapf(types.ErrTreasuryNotAllowlisted, "treasury %q", treasury)
		}
		burnPct, err := k.BurnPct(ctx)
		if err != nil {
			return err
		}
		burn, rest := pct.Split(pending, burnPct)
		if burn.IsPositive() {
			if err := k.token.Burn(ctx, k.address, burn); err != nil {
				return errorsmod.Wrapf(types.ErrTransferFailed, "burn: %s", err)
			}
		}
		if rest.IsPositive() {
			if err := k.token.Transfer(ctx, k.address, treasury, rest); err != nil {
				return errorsmod.Wrapf(types.ErrTransferFailed, "treasury: %s", err)
			}
		}
		if err := k.PendingFees.Set(ctx, sdkmath.ZeroInt()); err != nil {
			return err
		}
		out = types.Distribution{Burned: burn, Distributed: rest, Treasury: treasury}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeFeesDistributed,
			sdk.NewAttribute(types.AttributeKeyBurned, burn.String()),
			sdk.NewAttribute(types.AttributeKeyDistributed, rest.String()),
			sdk.NewAttribute(types.AttributeKeyTreasury, treasury),
		))
		k.Logger(ctx).Info("fees distributed", "caller", caller, "burned", burn.String(), "treasury", rest.String())
		return nil
	})
	if err != nil {
		return types.Distribution{}, err
	}
	return out, nil
}

// SetBurnPct sets the whole-percent share of fees burned on distribution.
func (k Keeper) SetBurnPct(ctx context.Context, caller string, burnPct uint32) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if err := pct.Validate("burn_pct", burnPct); err != nil {
			return err
		}
		if err := k.BurnPctValue.Set(ctx, burnPct); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeBurnPctUpdated,
			sdk.NewAttribute(types.AttributeKeyBurnPct, strconv.FormatUint(uint64(burnPct), 10)),
		))
		return nil
	})
}

// SetTreasury sets the distribution recipient, which must be allowlisted.
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

func (k Keeper) SetTreasuryAllowlist(ctx context.Context, caller, addr string, allowed bool) error {
	return k.setMembership(ctx, caller, k.TreasuryAllowlist, types.EventTypeTreasuryAllowlisted, addr, allowed)
}

// SetContributor registers or removes a module allowed to contribute fees.
func (k Keeper) SetContributor(ctx context.Context, caller, addr string, allowed bool) error {
	return k.setMembership(ctx, caller, k.Contributors, types.EventTypeContributorUpdated, addr, allowed)
}

func (k Keeper) setMembership(
	ctx context.Context,
	caller string,
	set collections.KeySet[string],
	eventType, addr string,
	allowed bool,
) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return errorsmod.Wrap(types.ErrInvalidAddress, "address cannot be empty")
		}
		var err error
		if allowed {
			err = set.Set(ctx, addr)
		} else {
			err = set.Remove(ctx, addr)
		}
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyAddress, addr),
			sdk.NewAttribute(types.AttributeKeyAllowed, strconv.FormatBool(allowed)),
		))
		return nil
	})
}
