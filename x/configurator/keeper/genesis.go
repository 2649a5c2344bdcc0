package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/x/configurator/types"
)

func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Ownable.Import(ctx, gs.Ownership); err != nil {
		return err
	}
	for _, entry := range gs.Entries {
		if err := k.storeEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	snap, err := k.Ownable.Export(ctx)
	if err != nil {
		return nil, err
	}
	gs := types.DefaultGenesis(snap.Owner)
	gs.Ownership = snap
	entries, err := k.AuditEntriesFrom(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	gs.Entries = append(gs.Entries, entries...)
	return gs, nil
}

// RegisterInvariants registers the audit chain invariant.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "audit-chain", AuditChainInvariant(k))
}

// AuditChainInvariant recomputes the stored audit hash chain.
func AuditChainInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		if err := k.VerifyAuditChain(ctx); err != nil {
			return sdk.FormatInvariant(types.ModuleName, "audit-chain", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "audit-chain", ""), false
	}
}
