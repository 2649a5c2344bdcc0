package keeper

import (
	"context"
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
	"github.com/sovereignlabor/kernel/x/lattice/types"
)

// Keeper is the governance pause lattice. It owns every wired module, holds
// the active pauser, and is the only path to their privileged setters.
type Keeper struct {
	storeService store.KVStoreService
	address      string
	router       *govcall.Dispatcher
	registry     types.ContractRegistry

	Ownable ownable.State
	Modules collections.Map[uint32, string]
}

// NewKeeper creates the lattice keeper. Lattice ownership is single-step.
func NewKeeper(storeService store.KVStoreService, registry types.ContractRegistry) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		address:      authtypes.NewModuleAddress(types.ModuleName).String(),
		registry:     registry,
		Ownable:      ownable.NewState(sb, types.OwnableKeyBase, types.ModuleName, false),
		Modules: collections.NewMap(
			sb,
			collections.NewPrefix(types.ModulesKey),
			"modules",
			collections.Uint32Key,
			collections.StringValue,
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

// ActivePauser is the identity propagated as pauser to every wired module.
func (k Keeper) ActivePauser(ctx context.Context) (string, error) {
	return k.Ownable.GetPauser(ctx)
}

// WiredModules returns the wired module addresses in wiring order.
func (k Keeper) WiredModules(ctx context.Context) ([]string, error) {
	var out []string
	err := k.Modules.Walk(ctx, nil, func(_ uint32, addr string) (bool, error) {
		out = append(out, addr)
		return false, nil
	})
	return out, err
}

// ModuleStatuses reports owner, pauser and pause flag of each wired module.
func (k Keeper) ModuleStatuses(ctx context.Context) ([]types.ModuleStatus, error) {
	modules, err := k.governables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.ModuleStatus, 0, len(modules))
	for _, m := range modules {
		st := types.ModuleStatus{Address: m.Address()}
		if st.Owner, err = m.Owner(ctx); err != nil {
			return nil, err
		}
		if st.Pauser, err = m.Pauser(ctx); err != nil {
			return nil, err
		}
		if st.Paused, err = m.IsPaused(ctx); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// TransferOwnership hands the lattice to newOwner in one step.
func (k Keeper) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.TransferOwnership(ctx, caller, newOwner)
	})
}

// SetModules replaces the wired module set. Every module must already be
// owned by the lattice. The active pauser, if any, is pushed to the new set.
func (k Keeper) SetModules(ctx context.Context, caller string, addrs []string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if len(addrs) == 0 {
			return types.ErrEmptyModuleSet
		}
		seen := make(map[string]struct{}, len(addrs))
		clean := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				return errorsmod.Wrap(types.ErrInvalidAddress, "module address cannot be empty")
			}
			if _, dup := seen[addr]; dup {
				return errorsmod.Wrapf(types.ErrDuplicateModule, "%s", addr)
			}
			seen[addr] = struct{}{}
			m, err := k.governable(addr)
			if err != nil {
				return err
			}
			owner, err := m.Owner(ctx)
			if err != nil {
				return err
			}
			if owner != k.address {
				return errorsmod.Wrapf(types.ErrModuleNotOwned, "%s is owned by %q", addr, owner)
			}
			clean = append(clean, addr)
		}
		if err := k.clearModules(ctx); err != nil {
			return err
		}
		for i, addr := range clean {
			if err := k.Modules.Set(ctx, uint32(i), addr); err != nil {
				return err
			}
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeModulesUpdated,
			sdk.NewAttribute(types.AttributeKeyModules, strings.Join(clean, ",")),
		))
		k.Logger(ctx).Info("lattice modules wired", "count", len(clean))

		pauser, err := k.ActivePauser(ctx)
		if err != nil {
			return err
		}
		if pauser == "" {
			return nil
		}
		return k.propagatePauser(ctx, pauser)
	})
}

// SetGlobalPauser designates the active pauser and makes every wired module
// recognise it.
func (k Keeper) SetGlobalPauser(ctx context.Context, caller, pauser string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		pauser = strings.TrimSpace(pauser)
		if pauser == "" {
			return errorsmod.Wrap(types.ErrInvalidAddress, "pauser cannot be empty")
		}
		if err := k.Ownable.SetPauser(ctx, caller, pauser); err != nil {
			return err
		}
		return k.propagatePauser(ctx, pauser)
	})
}

// RefreshPausers pushes the active pauser to the wired modules again, for
// example after module state was imported with a different pauser.
func (k Keeper) RefreshPausers(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		pauser, err := k.ActivePauser(ctx)
		if err != nil {
			return err
		}
		if pauser == "" {
			return errorsmod.Wrap(types.ErrInvalidAddress, "no active pauser")
		}
		return k.propagatePauser(ctx, pauser)
	})
}

func (k Keeper) propagatePauser(ctx sdk.Context, pauser string) error {
	modules, err := k.governables(ctx)
	if err != nil {
		return err
	}
	for _, m := range modules {
		if err := m.SetPauser(ctx, k.address, pauser); err != nil {
			return govcall.WrapCallError(types.ErrModuleCallFailed, m.Address(), err)
		}
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePausersUpdated,
		sdk.NewAttribute(types.AttributeKeyPauser, pauser),
		sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(len(modules))),
	))
	k.Logger(ctx).Info("pauser propagated", "pauser", pauser, "modules", len(modules))
	return nil
}

// ExecuteGovernanceCall forwards payload to target with the lattice as
// caller. A failing inner call fails the whole governance call, and so does a
// call that leaves a wired module with another owner, a pending owner or a
// pauser other than the active one. Such a module must be unwired first.
func (k Keeper) ExecuteGovernanceCall(ctx context.Context, caller, target string, payload []byte) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		target = strings.TrimSpace(target)
		callable, err := k.registry.Callable(target)
		if err != nil {
			return govcall.WrapCallError(types.ErrGovernanceCallFailed, target, err)
		}
		if err := callable.Call(ctx, k.address, payload); err != nil {
			k.Logger(ctx).Warn("governance call reverted", "target", target, "err", err.Error())
			return govcall.WrapCallError(types.ErrGovernanceCallFailed, target, err)
		}
		if err := k.requireWiredControl(ctx); err != nil {
			k.Logger(ctx).Warn("governance call would release a wired module", "target", target, "err", err.Error())
			return govcall.WrapCallError(types.ErrGovernanceCallFailed, target, err)
		}
		method := ""
		if p, err := govcall.Decode(payload); err == nil {
			method = p.Method
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeGovernanceCallExecuted,
			sdk.NewAttribute(types.AttributeKeyTarget, target),
			sdk.NewAttribute(types.AttributeKeyMethod, method),
			sdk.NewAttribute(types.AttributeKeyCaller, caller),
		))
		return nil
	})
}

// PauseAll pauses every wired module that is not already paused. Any module
// failing to pause aborts the whole operation.
func (k Keeper) PauseAll(ctx context.Context, caller string) error {
	return k.setAllPaused(ctx, caller, true)
}

// UnpauseAll is the inverse of PauseAll.
func (k Keeper) UnpauseAll(ctx context.Context, caller string) error {
	return k.setAllPaused(ctx, caller, false)
}

func (k Keeper) setAllPaused(ctx context.Context, caller string, pause bool) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequirePauserOrOwner(ctx, caller); err != nil {
			return err
		}
		modules, err := k.governables(ctx)
		if err != nil {
			return err
		}
		changed := 0
		for _, m := range modules {
			paused, err := m.IsPaused(ctx)
			if err != nil {
				return err
			}
			if paused == pause {
				continue
			}
			if pause {
				err = m.Pause(ctx, k.address)
			} else {
				err = m.Unpause(ctx, k.address)
			}
			if err != nil {
				return govcall.WrapCallError(types.ErrModuleCallFailed, m.Address(), err)
			}
			changed++
		}
		eventType := types.EventTypeAllUnpaused
		if pause {
			eventType = types.EventTypeAllPaused
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyCaller, caller),
			sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(changed)),
		))
		k.Logger(ctx).Info("lattice pause state changed", "paused", pause, "caller", caller, "modules", changed)
		return nil
	})
}

// requireWiredControl checks that the lattice still owns every wired module
// and that each one recognises the active pauser.
func (k Keeper) requireWiredControl(ctx context.Context) error {
	modules, err := k.governables(ctx)
	if err != nil {
		return err
	}
	active, err := k.ActivePauser(ctx)
	if err != nil {
		return err
	}
	for _, m := range modules {
		owner, err := m.Owner(ctx)
		if err != nil {
			return err
		}
		if owner != k.address {
			return errorsmod.Wrapf(types.ErrModuleNotOwned, "%s would be owned by %q", m.Address(), owner)
		}
		if two, ok := m.(ownable.TwoStep); ok {
			pending, err := two.PendingOwner(ctx)
			if err != nil {
				return err
			}
			if pending != "" {
				return errorsmod.Wrapf(types.ErrModuleNotOwned, "%s has pending owner %q", m.Address(), pending)
			}
		}
		if active == "" {
			continue
		}
		pauser, err := m.Pauser(ctx)
		if err != nil {
			return err
		}
		if pauser != active {
			return errorsmod.Wrapf(types.ErrPauserMismatch, "%s pauser %q, active %q", m.Address(), pauser, active)
		}
	}
	return nil
}

func (k Keeper) clearModules(ctx context.Context) error {
	var idx []uint32
	if err := k.Modules.Walk(ctx, nil, func(i uint32, _ string) (bool, error) {
		idx = append(idx, i)
		return false, nil
	}); err != nil {
		return err
	}
	for _, i := range idx {
		if err := k.Modules.Remove(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (k Keeper) governable(addr string) (ownable.Governable, error) {
	contract, ok := k.registry.Lookup(addr)
	if !ok {
		return nil, errorsmod.Wrapf(govcall.ErrUnknownTarget, "%s", addr)
	}
	m, ok := contract.(ownable.Governable)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrModuleNotGovernable, "%s", addr)
	}
	return m, nil
}

func (k Keeper) governables(ctx context.Context) ([]ownable.Governable, error) {
	addrs, err := k.WiredModules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ownable.Governable, 0, len(addrs))
	for _, addr := range addrs {
		m, err := k.governable(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
