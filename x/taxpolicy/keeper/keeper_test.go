package keeper_test

import (
	"testing"

	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/testutil"
	"github.com/sovereignlabor/kernel/x/taxpolicy/keeper"
	"github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

const owner = "owner-safe"

func setupKeeper(t *testing.T) (keeper.Keeper, sdk.Context) {
	t.Helper()
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := testutil.NewContext(t, storeKey)
	k := keeper.NewKeeper(runtime.NewKVStoreService(storeKey))
	require.NoError(t, k.InitGenesis(ctx, types.DefaultGenesis(owner)))
	return k, ctx
}

func TestAcknowledgeTracksVersion(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.NoError(t, k.Acknowledge(ctx, "alice"))
	ok, err := k.HasAcknowledged(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, k.SetPolicyURI(ctx, owner, "ipfs://policy-v2"))
	version, err := k.CurrentVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)

	ok, err = k.HasAcknowledged(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok, "a new policy version requires a new acknowledgement")
	require.True(t, testutil.HasEvent(ctx, types.EventTypePolicyUpdated))
}

func TestAcknowledgeForRequiresAcknowledger(t *testing.T) {
	k, ctx := setupKeeper(t)

	err := k.AcknowledgeFor(ctx, "ledger", "alice")
	require.ErrorIs(t, err, types.ErrNotAcknowledger)

	require.ErrorIs(t, k.SetAcknowledger(ctx, "ledger", "ledger", true), ownable.ErrNotGovernance)
	require.NoError(t, k.SetAcknowledger(ctx, owner, "ledger", true))
	require.NoError(t, k.AcknowledgeFor(ctx, "ledger", "alice"))

	ok, err := k.HasAcknowledged(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPausedPolicyRejectsAcknowledgements(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pause(ctx, owner))
	require.ErrorIs(t, k.Acknowledge(ctx, "alice"), ownable.ErrPaused)

	// governance setters stay available while paused
	require.NoError(t, k.SetAcknowledgement(ctx, owner, "Updated terms."))
}

func TestTwoPhaseOwnershipThroughCalls(t *testing.T) {
	k, ctx := setupKeeper(t)

	payload := govcall.MustEncode(types.MethodTransferOwnership, types.AddressArgs{Address: "lattice"})
	require.NoError(t, k.Call(ctx, owner, payload))

	current, err := k.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, current)

	require.NoError(t, k.Call(ctx, "lattice", govcall.MustEncode(types.MethodAcceptOwnership, nil)))
	current, err = k.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, "lattice", current)

	err = k.Call(ctx, owner, govcall.MustEncode(types.MethodSetPolicyURI, types.SetPolicyURIArgs{URI: "ipfs://x"}))
	require.ErrorIs(t, err, ownable.ErrNotGovernance)
	require.NoError(t, k.Call(ctx, "lattice", govcall.MustEncode(types.MethodSetPolicyURI, types.SetPolicyURIArgs{URI: "ipfs://x"})))

	uri, _, err := k.Policy(ctx)
	require.NoError(t, err)
	require.Equal(t, "ipfs://x", uri)
}

func TestGenesisExportMatchesState(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.SetAcknowledger(ctx, owner, "ledger", true))
	require.NoError(t, k.Acknowledge(ctx, "bob"))

	gs, err := k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, gs.Validate())
	require.Equal(t, []string{"ledger"}, gs.Acknowledgers)
	require.Equal(t, []types.Acknowledgment{{Account: "bob", Version: 1}}, gs.Acknowledged)
	require.Equal(t, owner, gs.Ownership.Owner)
}
