package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/configurator/types"
)

// CallResolver resolves configuration targets.
type CallResolver interface {
	Callable(addr string) (govcall.Callable, error)
}

// Keeper is the configuration batcher: it forwards owner-approved calls and
// keeps a hash-chained audit log of every applied change.
type Keeper struct {
	storeService store.KVStoreService
	address      string
	resolver     CallResolver

	Ownable      ownable.State
	AuditEntries collections.Map[uint64, string]
	Sequence     collections.Item[uint64]
	LastHash     collections.Item[string]
}

var _ ownable.TwoStep = Keeper{}

// NewKeeper creates the batcher keeper. Ownership transfers are two-phase.
func NewKeeper(storeService store.KVStoreService, resolver CallResolver) Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	return Keeper{
		storeService: storeService,
		address:      authtypes.NewModuleAddress(types.ModuleName).String(),
		resolver:     resolver,
		Ownable:      ownable.NewState(sb, types.OwnableKeyBase, types.ModuleName, true),
		AuditEntries: collections.NewMap(
			sb,
			collections.NewPrefix(types.AuditEntriesKey),
			"audit_entries",
			collections.Uint64Key,
			collections.StringValue,
		),
		Sequence: collections.NewItem(sb, collections.NewPrefix(types.SequenceKey), "sequence", collections.Uint64Value),
		LastHash: collections.NewItem(sb, collections.NewPrefix(types.LastHashKey), "last_hash", collections.StringValue),
	}
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// Address is the caller identity presented to configuration targets.
func (k Keeper) Address() string { return k.address }

func (k Keeper) Owner(ctx context.Context) (string, error) {
	return k.Ownable.GetOwner(ctx)
}

func (k Keeper) PendingOwner(ctx context.Context) (string, error) {
	return k.Ownable.GetPendingOwner(ctx)
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

// Configure forwards one call and records it.
func (k Keeper) Configure(ctx context.Context, caller string, call types.ConfigurationCall) (types.AuditEntry, error) {
	var entry types.AuditEntry
	err := sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		var err error
		entry, err = k.apply(ctx, caller, call)
		return err
	})
	if err != nil {
		return types.AuditEntry{}, err
	}
	return entry, nil
}

// ConfigureBatch applies calls in order. Either every call applies and every
// audit entry is recorded, or nothing changes.
func (k Keeper) ConfigureBatch(ctx context.Context, caller string, calls []types.ConfigurationCall) ([]types.AuditEntry, error) {
	var entries []types.AuditEntry
	err := sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.Ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if len(calls) == 0 {
			return types.ErrEmptyBatch
		}
		entries = make([]types.AuditEntry, 0, len(calls))
		for i, call := range calls {
			entry, err := k.apply(ctx, caller, call)
			if err != nil {
				k.Logger(ctx).Warn("configuration batch aborted", "index", i, "size", len(calls), "err", err.Error())
				return errorsmod.Wrapf(err, "batch call %d", i)
			}
			entries = append(entries, entry)
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeBatchApplied,
			sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(len(entries))),
			sdk.NewAttribute(types.AttributeKeyFirst, strconv.FormatUint(entries[0].Sequence, 10)),
			sdk.NewAttribute(types.AttributeKeyLast, strconv.FormatUint(entries[len(entries)-1].Sequence, 10)),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (k Keeper) apply(ctx sdk.Context, caller string, call types.ConfigurationCall) (types.AuditEntry, error) {
	if err := call.Validate(); err != nil {
		return types.AuditEntry{}, err
	}
	target := strings.TrimSpace(call.Target)
	callable, err := k.resolver.Callable(target)
	if err != nil {
		return types.AuditEntry{}, govcall.WrapCallError(types.ErrCallFailed, target, err)
	}
	if err := callable.Call(ctx, k.address, call.Payload); err != nil {
		return types.AuditEntry{}, govcall.WrapCallError(types.ErrCallFailed, target, err)
	}
	return k.record(ctx, caller, target, call)
}

func (k Keeper) record(ctx sdk.Context, caller, target string, call types.ConfigurationCall) (types.AuditEntry, error) {
	seq, err := k.lastSequence(ctx)
	if err != nil {
		return types.AuditEntry{}, err
	}
	prev, err := k.LastRecordHash(ctx)
	if err != nil {
		return types.AuditEntry{}, err
	}
	entry := types.AuditEntry{
		Sequence:     seq + 1,
		ModuleKey:    call.ModuleKey,
		ParameterKey: call.ParameterKey,
		Target:       target,
		PayloadHash:  types.PayloadDigest(call.Payload),
		OldValue:     call.OldValue,
		NewValue:     call.NewValue,
		Caller:       strings.TrimSpace(caller),
		BlockHeight:  ctx.BlockHeight(),
		Timestamp:    sdkctx.Now(ctx).Format(time.RFC3339),
		PreviousHash: prev,
	}
	entry.RecordHash = entry.ComputeHash()

	if err := k.storeEntry(ctx, entry); err != nil {
		return types.AuditEntry{}, err
	}
	ctx.EventManager().EmitEvent(entry.Event())
	k.Logger(ctx).Info("parameter updated",
		"sequence", entry.Sequence,
		"module_key", entry.ModuleKey.Hex(),
		"parameter_key", entry.ParameterKey.Hex(),
		"target", target,
		"record_hash", entry.RecordHash)
	return entry, nil
}

func (k Keeper) storeEntry(ctx context.Context, entry types.AuditEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := k.AuditEntries.Set(ctx, entry.Sequence, string(raw)); err != nil {
		return err
	}
	if err := k.Sequence.Set(ctx, entry.Sequence); err != nil {
		return err
	}
	return k.LastHash.Set(ctx, entry.RecordHash)
}

func (k Keeper) lastSequence(ctx context.Context) (uint64, error) {
	v, err := k.Sequence.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

// LastRecordHash is the head of the audit chain, GenesisHash when empty.
func (k Keeper) LastRecordHash(ctx context.Context) (string, error) {
	v, err := k.LastHash.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.GenesisHash, nil
	}
	return v, err
}

// AuditEntry returns the entry recorded at seq.
func (k Keeper) AuditEntry(ctx context.Context, seq uint64) (types.AuditEntry, error) {
	raw, err := k.AuditEntries.Get(ctx, seq)
	if errors.Is(err, collections.ErrNotFound) {
		return types.AuditEntry{}, errorsmod.Wrapf(types.ErrEntryNotFound, "sequence %d", seq)
	}
	if err != nil {
		return types.AuditEntry{}, err
	}
	var entry types.AuditEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return types.AuditEntry{}, fmt.Errorf("decode audit entry %d: %w", seq, err)
	}
	return entry, nil
}

// AuditEntriesFrom returns up to limit entries starting at sequence from.
// A zero limit returns everything after from.
func (k Keeper) AuditEntriesFrom(ctx context.Context, from uint64, limit int) ([]types.AuditEntry, error) {
	var out []types.AuditEntry
	rng := new(collections.Range[uint64]).StartInclusive(from)
	err := k.AuditEntries.Walk(ctx, rng, func(seq uint64, raw string) (bool, error) {
		var entry types.AuditEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return true, fmt.Errorf("decode audit entry %d: %w", seq, err)
		}
		out = append(out, entry)
		return limit > 0 && len(out) >= limit, nil
	})
	return out, err
}

// VerifyAuditChain recomputes the whole stored chain.
func (k Keeper) VerifyAuditChain(ctx context.Context) error {
	entries, err := k.AuditEntriesFrom(ctx, 1, 0)
	if err != nil {
		return err
	}
	if err := types.VerifyChain(types.GenesisHash, entries); err != nil {
		return err
	}
	head, err := k.LastRecordHash(ctx)
	if err != nil {
		return err
	}
	want := types.GenesisHash
	if len(entries) > 0 {
		want = entries[len(entries)-1].RecordHash
	}
	if head != want {
		return errorsmod.Wrapf(types.ErrBrokenChain, "head %s, last entry %s", head, want)
	}
	return nil
}
