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
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

// Keeper holds the tax policy participants acknowledge before staking.
type Keeper struct {
	storeService store.KVStoreService
	address      string
	router       *govcall.Dispatcher

	Ownable         ownable.State
	PolicyURI       collections.Item[string]
	Acknowledgement collections.Item[string]
	Version         collections.Item[uint64]
	Acknowledgers   collections.KeySet[string]
	Acknowledged    collections.Map[string, uint64]
}

var (
	_ ownable.Governable = Keeper{}
	_ ownable.TwoStep    = Keeper{}
)

// NewKeeper creates the tax policy keeper. Ownership transfers are two-phase.
func NewKeeper(storeService store.KVStoreService) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		address:      authtypes.NewModuleAddress(types.ModuleName).String(),
		Ownable:      ownable.NewState(sb, types.OwnableKeyBase, types.ModuleName, true),
		PolicyURI: collections.NewItem(
			sb,
			collections.NewPrefix(types.PolicyURIKey),
			"policy_uri",
			collections.StringValue,
		),
		Acknowledgement: collections.NewItem(
			sb,
			collections.NewPrefix(types.AcknowledgementKey),
			"acknowledgement",
			collections.StringValue,
		),
		Version: collections.NewItem(
			sb,
			collections.NewPrefix(types.VersionKey),
			"version",
			collections.Uint64Value,
		),
		Acknowledgers: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AcknowledgersKey),
			"acknowledgers",
			collections.StringKey,
		),
		Acknowledged: collections.NewMap(
			sb,
			collections.NewPrefix(types.AcknowledgedKey),
			"acknowledged",
			collections.StringKey,
			collections.Uint64Value,
		),
	}
	k.router = k.newRouter()
	return k
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// Address is the module account that owns tax policy state.
func (k Keeper) Address() string { return k.address }

func (k Keeper) Owner(ctx context.Context) (string, error) {
	return k.Ownable.GetOwner(ctx)
}

func (k Keeper) PendingOwner(ctx context.Context) (string, error) {
	return k.Ownable.GetPendingOwner(ctx)
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

func (k Keeper) AcceptOwnership(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.AcceptOwnership(ctx, caller)
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

// CurrentVersion returns the policy version participants must acknowledge.
func (k Keeper) CurrentVersion(ctx context.Context) (uint64, error) {
	v, err := k.Version.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 1, nil
	}
	return v, err
}

// Policy returns the policy URI and acknowledgement text.
func (k Keeper) Policy(ctx context.Context) (uri, text string, err error) {
	if uri, err = k.PolicyURI.Get(ctx); err != nil && !errors.Is(err, collections.ErrNotFound) {
		return "", "", err
	}
	if text, err = k.Acknowledgement.Get(ctx); err != nil && !errors.Is(err, collections.ErrNotFound) {
		return "", "", err
	}
	return uri, text, nil
}

// SetPolicyURI publishes a new policy document and bumps the version.
func (k Keeper) SetPolicyURI(ctx context.Context, caller, uri string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		uri = strings.TrimSpace(uri)
		if uri == "" {
			return errorsmod.Wrap(types.ErrInvalidPolicy, "policy uri cannot be empty")
		}
		if err := k.PolicyURI.Set(ctx, uri); err != nil {
			return err
		}
		return k.bumpVersion(ctx)
	})
}

// SetAcknowledgement replaces the acknowledgement text and bumps the version.
func (k Keeper) SetAcknowledgement(ctx context.Context, caller, text string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errorsmod.Wrap(types.ErrInvalidPolicy, "acknowledgement cannot be empty")
		}
		if err := k.Acknowledgement.Set(ctx, text); err != nil {
			return err
		}
		return k.bumpVersion(ctx)
	})
}

// SetPolicy replaces both the URI and the text under a single new version.
func (k Keeper) SetPolicy(ctx context.Context, caller, uri, text string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		uri = strings.TrimSpace(uri)
		if uri == "" || strings.TrimSpace(text) == "" {
			return errorsmod.Wrap(types.ErrInvalidPolicy, "uri and acknowledgement are required")
		}
		if err := k.PolicyURI.Set(ctx, uri); err != nil {
			return err
		}
		if err := k.Acknowledgement.Set(ctx, text); err != nil {
			return err
		}
		return k.bumpVersion(ctx)
	})
}

func (k Keeper) bumpVersion(ctx sdk.Context) error {
	version, err := k.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	version++
	if err := k.Version.Set(ctx, version); err != nil {
		return err
	}
	uri, text, err := k.Policy(ctx)
	if err != nil {
		return err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePolicyUpdated,
		sdk.NewAttribute(types.AttributeKeyURI, uri),
		sdk.NewAttribute(types.AttributeKeyAcknowledgement, text),
		sdk.NewAttribute(types.AttributeKeyVersion, strconv.FormatUint(version, 10)),
	))
	k.Logger(ctx).Info("tax policy updated", "version", version, "uri", uri)
	return nil
}

// SetAcknowledger allows or revokes addr acknowledging on behalf of others.
func (k Keeper) SetAcknowledger(ctx context.Context, caller, addr string, allowed bool) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return errorsmod.Wrap(types.ErrInvalidAddress, "acknowledger cannot be empty")
		}
		var err error
		if allowed {
			err = k.Acknowledgers.Set(ctx, addr)
		} else {
			err = k.Acknowledgers.Remove(ctx, addr)
		}
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeAcknowledgerUpdated,
			sdk.NewAttribute(types.AttributeKeyAcknowledger, addr),
			sdk.NewAttribute(types.AttributeKeyAllowed, strconv.FormatBool(allowed)),
		))
		return nil
	})
}

// IsAcknowledger reports whether addr may call AcknowledgeFor.
func (k Keeper) IsAcknowledger(ctx context.Context, addr string) (bool, error) {
	return k.Acknowledgers.Has(ctx, strings.TrimSpace(addr))
}

// Acknowledge records that caller accepts the current policy.
func (k Keeper) Acknowledge(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.acknowledge(ctx, caller)
	})
}

// AcknowledgeFor records acceptance for account. Only registered
// acknowledgers may call it.
func (k Keeper) AcknowledgeFor(ctx context.Context, caller, account string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		ok, err := k.IsAcknowledger(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return errorsmod.Wrapf(types.ErrNotAcknowledger, "%q", caller)
		}
		return k.acknowledge(ctx, account)
	})
}

func (k Keeper) acknowledge(ctx sdk.Context, account string) error {
	if err := k.Ownable.RequireNotPaused(ctx); err != nil {
		return err
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return errorsmod.Wrap(types.ErrInvalidAddress, "account cannot be empty")
	}
	version, err := k.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if err := k.Acknowledged.Set(ctx, account, version); err != nil {
		return err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeAcknowledged,
		sdk.NewAttribute(types.AttributeKeyAccount, account),
		sdk.NewAttribute(types.AttributeKeyVersion, strconv.FormatUint(version, 10)),
	))
	return nil
}

// HasAcknowledged reports whether account accepted the current version.
func (k Keeper) HasAcknowledged(ctx context.Context, account string) (bool, error) {
	acked, err := k.Acknowledged.Get(ctx, strings.TrimSpace(account))
	if errors.Is(err, collections.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	version, err := k.CurrentVersion(ctx)
	if err != nil {
		return false, err
	}
	return acked == version, nil
}
