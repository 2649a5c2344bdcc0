// Package ownable stores the owner, pauser and pause flag shared by every
// governable kernel module.
package ownable

import (
	"context"
	"errors"
	"strings"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
)

const codespace = "ownable"

var (
	ErrNotGovernance   = errorsmod.Register(codespace, 2, "caller is not governance")
	ErrNotPauser       = errorsmod.Register(codespace, 3, "caller is not the pauser")
	ErrPaused          = errorsmod.Register(codespace, 4, "module is paused")
	ErrNotPaused       = errorsmod.Register(codespace, 5, "module is not paused")
	ErrInvalidAddress  = errorsmod.Register(codespace, 6, "invalid address")
	ErrNotPendingOwner = errorsmod.Register(codespace, 7, "caller is not the pending owner")
)

const (
	EventTypeOwnershipTransferStarted = "ownership_transfer_started"
	EventTypeOwnershipTransferred     = "ownership_transferred"
	EventTypePauserUpdated            = "pauser_updated"
	EventTypePaused                   = "paused"
	EventTypeUnpaused                 = "unpaused"

	AttributeKeyModule        = "module"
	AttributeKeyPreviousOwner = "previous_owner"
	AttributeKeyNewOwner      = "new_owner"
	AttributeKeyPauser        = "pauser"
	AttributeKeyAccount       = "account"
)

// Governable is the surface the pause lattice drives on each wired module.
type Governable interface {
	govcall.Callable
	Owner(ctx context.Context) (string, error)
	Pauser(ctx context.Context) (string, error)
	IsPaused(ctx context.Context) (bool, error)
	SetPauser(ctx context.Context, caller, pauser string) error
	Pause(ctx context.Context, caller string) error
	Unpause(ctx context.Context, caller string) error
}

// TwoStep is implemented by modules whose ownership must be accepted.
type TwoStep interface {
	PendingOwner(ctx context.Context) (string, error)
	AcceptOwnership(ctx context.Context, caller string) error
}

// State is the ownership record of one module. Prefixes start at base and use
// four consecutive bytes.
type State struct {
	module  string
	twoStep bool

	Owner        collections.Item[string]
	PendingOwner collections.Item[string]
	Pauser       collections.Item[string]
	Paused       collections.Item[bool]
}

// NewState registers the ownership collections on sb.
func NewState(sb *collections.SchemaBuilder, base byte, module string, twoStep bool) State {
	return State{
		module:       module,
		twoStep:      twoStep,
		Owner:        collections.NewItem(sb, collections.NewPrefix([]byte{base}), "owner", collections.StringValue),
		PendingOwner: collections.NewItem(sb, collections.NewPrefix([]byte{base + 1}), "pending_owner", collections.StringValue),
		Pauser:       collections.NewItem(sb, collections.NewPrefix([]byte{base + 2}), "pauser", collections.StringValue),
		Paused:       collections.NewItem(sb, collections.NewPrefix([]byte{base + 3}), "paused", collections.BoolValue),
	}
}

// TwoPhase reports whether ownership transfers need acceptance.
func (s State) TwoPhase() bool { return s.twoStep }

func getOrEmpty(ctx context.Context, item collections.Item[string]) (string, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (s State) GetOwner(ctx context.Context) (string, error) {
	return getOrEmpty(ctx, s.Owner)
}

func (s State) GetPendingOwner(ctx context.Context) (string, error) {
	return getOrEmpty(ctx, s.PendingOwner)
}

func (s State) GetPauser(ctx context.Context) (string, error) {
	return getOrEmpty(ctx, s.Pauser)
}

func (s State) IsPaused(ctx context.Context) (bool, error) {
	paused, err := s.Paused.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return false, nil
	}
	return paused, err
}

// InitOwner sets the owner without authorization. Used by genesis only.
func (s State) InitOwner(ctx context.Context, owner string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s owner cannot be empty", s.module)
	}
	return s.Owner.Set(ctx, owner)
}

// InitPauser sets the pauser without authorization. Used by genesis only.
func (s State) InitPauser(ctx context.Context, pauser string) error {
	return s.Pauser.Set(ctx, strings.TrimSpace(pauser))
}

// RequireOwner fails with ErrNotGovernance unless caller owns the module.
func (s State) RequireOwner(ctx context.Context, caller string) error {
	owner, err := s.GetOwner(ctx)
	if err != nil {
		return err
	}
	if owner == "" || strings.TrimSpace(caller) != owner {
		return errorsmod.Wrapf(ErrNotGovernance, "%s: %q", s.module, caller)
	}
	return nil
}

// RequirePauserOrOwner fails with ErrNotPauser unless caller is the pauser or
// the owner.
func (s State) RequirePauserOrOwner(ctx context.Context, caller string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return errorsmod.Wrapf(ErrNotPauser, "%s: empty caller", s.module)
	}
	pauser, err := s.GetPauser(ctx)
	if err != nil {
		return err
	}
	if pauser != "" && caller == pauser {
		return nil
	}
	owner, err := s.GetOwner(ctx)
	if err != nil {
		return err
	}
	if caller == owner {
		return nil
	}
	return errorsmod.Wrapf(ErrNotPauser, "%s: %q", s.module, caller)
}

// RequireNotPaused fails with ErrPaused while the module is paused.
func (s State) RequireNotPaused(ctx context.Context) error {
	paused, err := s.IsPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return errorsmod.Wrap(ErrPaused, s.module)
	}
	return nil
}

// TransferOwnership hands the module to newOwner, or records newOwner as
// pending when the module uses two-phase ownership.
func (s State) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s new owner cannot be empty", s.module)
	}
	previous, err := s.GetOwner(ctx)
	if err != nil {
		return err
	}

	if s.twoStep {
		if err := s.PendingOwner.Set(ctx, newOwner); err != nil {
			return err
		}
		sdkctx.EmitEvent(ctx, sdk.NewEvent(
			EventTypeOwnershipTransferStarted,
			sdk.NewAttribute(AttributeKeyModule, s.module),
			sdk.NewAttribute(AttributeKeyPreviousOwner, previous),
			sdk.NewAttribute(AttributeKeyNewOwner, newOwner),
		))
		return nil
	}
	return s.setOwner(ctx, previous, newOwner)
}

// AcceptOwnership completes a two-phase transfer.
func (s State) AcceptOwnership(ctx context.Context, caller string) error {
	pending, err := s.GetPendingOwner(ctx)
	if err != nil {
		return err
	}
	caller = strings.TrimSpace(caller)
	if pending == "" || caller != pending {
		return errorsmod.Wrapf(ErrNotPendingOwner, "%s: %q", s.module, caller)
	}
	previous, err := s.GetOwner(ctx)
	if err != nil {
		return err
	}
	if err := s.PendingOwner.Remove(ctx); err != nil {
		return err
	}
	return s.setOwner(ctx, previous, pending)
}

func (s State) setOwner(ctx context.Context, previous, next string) error {
	if err := s.Owner.Set(ctx, next); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		EventTypeOwnershipTransferred,
		sdk.NewAttribute(AttributeKeyModule, s.module),
		sdk.NewAttribute(AttributeKeyPreviousOwner, previous),
		sdk.NewAttribute(AttributeKeyNewOwner, next),
	))
	return nil
}

// SetPauser designates the account allowed to pause the module. An empty
// pauser leaves only the owner able to pause.
func (s State) SetPauser(ctx context.Context, caller, pauser string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	pauser = strings.TrimSpace(pauser)
	if err := s.Pauser.Set(ctx, pauser); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		EventTypePauserUpdated,
		sdk.NewAttribute(AttributeKeyModule, s.module),
		sdk.NewAttribute(AttributeKeyPauser, pauser),
	))
	return nil
}

// Pause stops the module's user operations.
func (s State) Pause(ctx context.Context, caller string) error {
	if err := s.RequirePauserOrOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.RequireNotPaused(ctx); err != nil {
		return err
	}
	if err := s.Paused.Set(ctx, true); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		EventTypePaused,
		sdk.NewAttribute(AttributeKeyModule, s.module),
		sdk.NewAttribute(AttributeKeyAccount, strings.TrimSpace(caller)),
	))
	return nil
}

// Unpause resumes the module's user operations.
func (s State) Unpause(ctx context.Context, caller string) error {
	if err := s.RequirePauserOrOwner(ctx, caller); err != nil {
		return err
	}
	paused, err := s.IsPaused(ctx)
	if err != nil {
		return err
	}
	if !paused {
		return errorsmod.Wrap(ErrNotPaused, s.module)
	}
	if err := s.Paused.Set(ctx, false); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		EventTypeUnpaused,
		sdk.NewAttribute(AttributeKeyModule, s.module),
		sdk.NewAttribute(AttributeKeyAccount, strings.TrimSpace(caller)),
	))
	return nil
}

// Export returns the stored ownership record.
func (s State) Export(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Owner, err = s.GetOwner(ctx); err != nil {
		return snap, err
	}
	if snap.PendingOwner, err = s.GetPendingOwner(ctx); err != nil {
		return snap, err
	}
	if snap.Pauser, err = s.GetPauser(ctx); err != nil {
		return snap, err
	}
	snap.Paused, err = s.IsPaused(ctx)
	return snap, err
}

// Import restores a record produced by Export.
func (s State) Import(ctx context.Context, snap Snapshot) error {
	if err := s.InitOwner(ctx, snap.Owner); err != nil {
		return err
	}
	if snap.PendingOwner != "" {
		if err := s.PendingOwner.Set(ctx, snap.PendingOwner); err != nil {
			return err
		}
	}
	if err := s.InitPauser(ctx, snap.Pauser); err != nil {
		return err
	}
	return s.Paused.Set(ctx, snap.Paused)
}

// Snapshot is the genesis form of State.
type Snapshot struct {
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner,omitempty"`
	Pauser       string `json:"pauser,omitempty"`
	Paused       bool   `json:"paused,omitempty"`
}

// Validate checks that the snapshot names an owner.
func (s Snapshot) Validate() error {
	if strings.TrimSpace(s.Owner) == "" {
		return errorsmod.Wrap(ErrInvalidAddress, "owner cannot be empty")
	}
	return nil
}
