package keeper_test

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/testutil"
	feekeeper "github.com/sovereignlabor/kernel/x/feepool/keeper"
	feetypes "github.com/sovereignlabor/kernel/x/feepool/types"
	"github.com/sovereignlabor/kernel/x/lattice/keeper"
	"github.com/sovereignlabor/kernel/x/lattice/types"
	ledgerkeeper "github.com/sovereignlabor/kernel/x/stakeledger/keeper"
	ledgertypes "github.com/sovereignlabor/kernel/x/stakeledger/types"
	taxkeeper "github.com/sovereignlabor/kernel/x/taxpolicy/keeper"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
	tokenkeeper "github.com/sovereignlabor/kernel/x/token/keeper"
	tokentypes "github.com/sovereignlabor/kernel/x/token/types"
)

const (
	gov      = "gov"
	guardian = "guardian"
	minter   = "minter"
	treasury = "treasury"
)

type fixture struct {
	ctx      sdk.Context
	lattice  keeper.Keeper
	token    tokenkeeper.Keeper
	tax      taxkeeper.Keeper
	ledger   ledgerkeeper.Keeper
	pool     feekeeper.Keeper
	registry *govcall.Registry
}

// setupKeeper wires three modules already owned by the lattice. The lattice
// itself is owned by gov and has no modules yet.
func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	latticeKey := storetypes.NewKVStoreKey(types.StoreKey)
	tokenKey := storetypes.NewKVStoreKey(tokentypes.StoreKey)
	taxKey := storetypes.NewKVStoreKey(taxtypes.StoreKey)
	ledgerKey := storetypes.NewKVStoreKey(ledgertypes.StoreKey)
	poolKey := storetypes.NewKVStoreKey(feetypes.StoreKey)
	ctx := testutil.NewContext(t, latticeKey, tokenKey, taxKey, ledgerKey, poolKey)

	registry := govcall.NewRegistry()
	token := tokenkeeper.NewKeeper(runtime.NewKVStoreService(tokenKey), minter)
	tax := taxkeeper.NewKeeper(runtime.NewKVStoreService(taxKey))
	ledger := ledgerkeeper.NewKeeper(runtime.NewKVStoreService(ledgerKey), token, tax, registry)
	pool := feekeeper.NewKeeper(runtime.NewKVStoreService(poolKey), token)
	lattice := keeper.NewKeeper(runtime.NewKVStoreService(latticeKey), registry)

	for _, c := range []govcall.Callable{tax, ledger, pool, lattice} {
		require.NoError(t, registry.RegisterCallable(c))
	}

	require.NoError(t, lattice.InitGenesis(ctx, types.DefaultGenesis(gov)))
	require.NoError(t, tax.InitGenesis(ctx, taxtypes.DefaultGenesis(lattice.Address())))

	ledgerGenesis := ledgertypes.DefaultGenesis(lattice.Address())
	ledgerGenesis.MinStake = sdkmath.NewInt(10)
	ledgerGenesis.Treasury = treasury
	ledgerGenesis.TreasuryAllowlist = []string{treasury}
	require.NoError(t, ledger.InitGenesis(ctx, ledgerGenesis))

	poolGenesis := feetypes.DefaultGenesis(lattice.Address())
	poolGenesis.Treasury = treasury
	poolGenesis.TreasuryAllowlist = []string{treasury}
	require.NoError(t, pool.InitGenesis(ctx, poolGenesis))

	return &fixture{
		ctx:      ctx,
		lattice:  lattice,
		token:    token,
		tax:      tax,
		ledger:   ledger,
		pool:     pool,
		registry: registry,
	}
}

func (f *fixture) modules() []string {
	return []string{f.tax.Address(), f.ledger.Address(), f.pool.Address()}
}

func (f *fixture) wire(t *testing.T) {
	t.Helper()
	require.NoError(t, f.lattice.SetModules(f.ctx, gov, f.modules()))
	require.NoError(t, f.lattice.SetGlobalPauser(f.ctx, gov, guardian))
}

// stuckModule claims lattice ownership but refuses to pause.
type stuckModule struct {
	addr  string
	owner string
}

func (m *stuckModule) Address() string { return m.addr }
func (m *stuckModule) Call(context.Context, string, []byte) error { return nil }
func (m *stuckModule) Owner(context.Context) (string, error) { return m.owner, nil }
func (m *stuckModule) Pauser(context.Context) (string, error) { return guardian, nil }
func (m *stuckModule) IsPaused(context.Context) (bool, error) { return false, nil }
func (m *stuckModule) SetPauser(context.Context, string, string) error { return nil }
func (m *stuckModule) Pause(context.Context, string) error { return errors.New("stuck") }
func (m *stuckModule) Unpause(context.Context, string) error { return nil }

func TestSetModulesValidation(t *testing.T) {
	f := setupKeeper(t)

	err := f.lattice.SetModules(f.ctx, "mallory", f.modules())
	require.ErrorIs(t, err, ownable.ErrNotGovernance)

	err = f.lattice.SetModules(f.ctx, gov, nil)
	require.ErrorIs(t, err, types.ErrEmptyModuleSet)

	err = f.lattice.SetModules(f.ctx, gov, []string{f.tax.Address(), f.tax.Address()})
	require.ErrorIs(t, err, types.ErrDuplicateModule)

	err = f.lattice.SetModules(f.ctx, gov, []string{"nowhere"})
	require.ErrorIs(t, err, govcall.ErrUnknownTarget)

	require.NoError(t, f.registry.Register("plain", struct{}{}))
	err = f.lattice.SetModules(f.ctx, gov, []string{"plain"})
	require.ErrorIs(t, err, types.ErrModuleNotGovernable)

	require.NoError(t, f.registry.RegisterCallable(&stuckModule{addr: "foreign", owner: gov}))
	err = f.lattice.SetModules(f.ctx, gov, []string{f.tax.Address(), "foreign"})
	require.ErrorIs(t, err, types.ErrModuleNotOwned)

	wired, err := f.lattice.WiredModules(f.ctx)
	require.NoError(t, err)
	require.Empty(t, wired)

	require.NoError(t, f.lattice.SetModules(f.ctx, gov, f.modules()))
	wired, err = f.lattice.WiredModules(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.modules(), wired)

	require.NoError(t, f.lattice.SetModules(f.ctx, gov, []string{f.pool.Address()}))
	wired, err = f.lattice.WiredModules(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{f.pool.Address()}, wired)
}

func TestSetGlobalPauserPropagates(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	active, err := f.lattice.ActivePauser(f.ctx)
	require.NoError(t, err)
	require.Equal(t, guardian, active)

	statuses, err := f.lattice.ModuleStatuses(f.ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, st := range statuses {
		require.Equal(t, guardian, st.Pauser, st.Address)
		require.Equal(t, f.lattice.Address(), st.Owner)
		require.False(t, st.Paused)
	}
	require.True(t, testutil.HasEvent(f.ctx, types.EventTypePausersUpdated))

	require.ErrorIs(t, f.lattice.SetGlobalPauser(f.ctx, guardian, "other"), ownable.ErrNotGovernance)
	require.ErrorIs(t, f.lattice.SetGlobalPauser(f.ctx, gov, " "), types.ErrInvalidAddress)
}

func TestRefreshPausers(t *testing.T) {
	f := setupKeeper(t)
	require.ErrorIs(t, f.lattice.RefreshPausers(f.ctx, gov), types.ErrInvalidAddress)
	f.wire(t)

	// the ledger drifted away from the active pauser outside the lattice
	require.NoError(t, f.ledger.SetPauser(f.ctx, f.lattice.Address(), "rogue"))

	payload := govcall.MustEncode(feetypes.MethodSetBurnPct, feetypes.SetBurnPctArgs{Pct: 3})
	err := f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.pool.Address(), payload)
	require.ErrorIs(t, err, types.ErrPauserMismatch)

	require.ErrorIs(t, f.lattice.RefreshPausers(f.ctx, guardian), ownable.ErrNotGovernance)
	require.NoError(t, f.lattice.RefreshPausers(f.ctx, gov))
	pauser, err := f.ledger.Pauser(f.ctx)
	require.NoError(t, err)
	require.Equal(t, guardian, pauser)
	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.pool.Address(), payload))
}

func TestGovernanceCallCannotReleaseWiredModule(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	cases := []struct {
		name    string
		target  string
		payload []byte
		want    error
	}{
		{
			name:    "ledger owner",
			target:  f.ledger.Address(),
			payload: govcall.MustEncode(ledgertypes.MethodTransferOwnership, ledgertypes.AddressArgs{Address: "mallory"}),
			want:    types.ErrModuleNotOwned,
		},
		{
			name:    "pool owner",
			target:  f.pool.Address(),
			payload: govcall.MustEncode(feetypes.MethodTransferOwnership, feetypes.AddressArgs{Address: "mallory"}),
			want:    types.ErrModuleNotOwned,
		},
		{
			name:    "tax pending owner",
			target:  f.tax.Address(),
			payload: govcall.MustEncode(taxtypes.MethodTransferOwnership, taxtypes.AddressArgs{Address: "mallory"}),
			want:    types.ErrModuleNotOwned,
		},
		{
			name:    "ledger pauser",
			target:  f.ledger.Address(),
			payload: govcall.MustEncode(ledgertypes.MethodSetPauser, ledgertypes.AddressArgs{Address: "rogue"}),
			want:    types.ErrPauserMismatch,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.lattice.ExecuteGovernanceCall(f.ctx, gov, tc.target, tc.payload)
			require.ErrorIs(t, err, types.ErrGovernanceCallFailed)
			require.ErrorIs(t, err, tc.want)
		})
	}

	statuses, err := f.lattice.ModuleStatuses(f.ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		require.Equal(t, f.lattice.Address(), st.Owner, st.Address)
		require.Equal(t, guardian, st.Pauser, st.Address)
	}
	pending, err := f.tax.PendingOwner(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	// the emergency halt still reaches every module
	require.NoError(t, f.lattice.PauseAll(f.ctx, guardian))
	for _, st := range mustStatuses(t, f) {
		require.True(t, st.Paused, st.Address)
	}
	require.NoError(t, f.lattice.UnpauseAll(f.ctx, guardian))

	// once unwired, the ledger can be handed away
	require.NoError(t, f.lattice.SetModules(f.ctx, gov, []string{f.tax.Address(), f.pool.Address()}))
	release := govcall.MustEncode(ledgertypes.MethodTransferOwnership, ledgertypes.AddressArgs{Address: "council"})
	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.ledger.Address(), release))
	owner, err := f.ledger.Owner(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "council", owner)
}

func mustStatuses(t *testing.T, f *fixture) []types.ModuleStatus {
	t.Helper()
	statuses, err := f.lattice.ModuleStatuses(f.ctx)
	require.NoError(t, err)
	return statuses
}

func TestPauseAllFromGuardian(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)
	require.NoError(t, f.token.Mint(f.ctx, minter, "alice", sdkmath.NewInt(100)))
	require.NoError(t, f.token.Approve(f.ctx, "alice", f.ledger.Address(), sdkmath.NewInt(100)))

	require.ErrorIs(t, f.lattice.PauseAll(f.ctx, "mallory"), ownable.ErrNotPauser)

	require.NoError(t, f.lattice.PauseAll(f.ctx, guardian))
	statuses, err := f.lattice.ModuleStatuses(f.ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		require.True(t, st.Paused, st.Address)
	}
	err = f.ledger.DepositStake(f.ctx, "alice", ledgertypes.RoleAgent, sdkmath.NewInt(50))
	require.ErrorIs(t, err, ownable.ErrPaused)
	require.True(t, testutil.HasEvent(f.ctx, types.EventTypeAllPaused))

	// already paused modules are skipped
	require.NoError(t, f.lattice.PauseAll(f.ctx, gov))

	require.NoError(t, f.lattice.UnpauseAll(f.ctx, guardian))
	require.NoError(t, f.ledger.DepositStake(f.ctx, "alice", ledgertypes.RoleAgent, sdkmath.NewInt(50)))
}

func TestPauseAllIsAtomic(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	stuck := &stuckModule{addr: "stuck", owner: f.lattice.Address()}
	require.NoError(t, f.registry.RegisterCallable(stuck))
	require.NoError(t, f.lattice.SetModules(f.ctx, gov, append(f.modules(), stuck.addr)))

	err := f.lattice.PauseAll(f.ctx, guardian)
	require.ErrorIs(t, err, types.ErrModuleCallFailed)
	require.ErrorContains(t, err, "stuck")

	for _, m := range []ownable.Governable{f.tax, f.ledger, f.pool} {
		paused, err := m.IsPaused(f.ctx)
		require.NoError(t, err)
		require.False(t, paused, m.Address())
	}
	require.False(t, testutil.HasEvent(f.ctx, types.EventTypeAllPaused))
}

func TestExecuteGovernanceCall(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	payload := govcall.MustEncode(taxtypes.MethodSetPolicyURI, taxtypes.SetPolicyURIArgs{URI: "ipfs://policy-v2"})
	require.ErrorIs(t, f.lattice.ExecuteGovernanceCall(f.ctx, guardian, f.tax.Address(), payload), ownable.ErrNotGovernance)

	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.tax.Address(), payload))
	uri, _, err := f.tax.Policy(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "ipfs://policy-v2", uri)
	method, ok := testutil.EventAttribute(f.ctx, types.EventTypeGovernanceCallExecuted, types.AttributeKeyMethod)
	require.True(t, ok)
	require.Equal(t, taxtypes.MethodSetPolicyURI, method)

	bad := govcall.MustEncode(feetypes.MethodSetTreasury, feetypes.AddressArgs{Address: "rogue"})
	err = f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.pool.Address(), bad)
	require.ErrorIs(t, err, types.ErrGovernanceCallFailed)
	require.ErrorIs(t, err, feetypes.ErrTreasuryNotAllowlisted)
	got, err := f.pool.Treasury(f.ctx)
	require.NoError(t, err)
	require.Equal(t, treasury, got)

	err = f.lattice.ExecuteGovernanceCall(f.ctx, gov, "nowhere", payload)
	require.ErrorIs(t, err, types.ErrGovernanceCallFailed)
	require.ErrorIs(t, err, govcall.ErrUnknownTarget)

	// the guardian paused a module directly; governance recovers it
	require.NoError(t, f.ledger.Pause(f.ctx, guardian))
	unpause := govcall.MustEncode(ledgertypes.MethodUnpause, nil)
	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.ledger.Address(), unpause))
	paused, err := f.ledger.IsPaused(f.ctx)
	require.NoError(t, err)
	require.False(t, paused)
}

func TestTwoStepOwnershipThroughLattice(t *testing.T) {
	f := setupKeeper(t)

	// hand tax policy back to gov, then propose the lattice again
	transfer := govcall.MustEncode(taxtypes.MethodTransferOwnership, taxtypes.AddressArgs{Address: gov})
	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.tax.Address(), transfer))
	require.NoError(t, f.tax.AcceptOwnership(f.ctx, gov))
	require.NoError(t, f.tax.TransferOwnership(f.ctx, gov, f.lattice.Address()))

	err := f.lattice.SetModules(f.ctx, gov, f.modules())
	require.ErrorIs(t, err, types.ErrModuleNotOwned)

	accept := govcall.MustEncode(taxtypes.MethodAcceptOwnership, nil)
	require.NoError(t, f.lattice.ExecuteGovernanceCall(f.ctx, gov, f.tax.Address(), accept))
	owner, err := f.tax.Owner(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.lattice.Address(), owner)

	require.NoError(t, f.lattice.SetModules(f.ctx, gov, f.modules()))
}

func TestCallRouterAndOwnership(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	require.NoError(t, f.lattice.TransferOwnership(f.ctx, gov, "council"))
	owner, err := f.lattice.Owner(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "council", owner)

	inner := govcall.MustEncode(feetypes.MethodSetBurnPct, feetypes.SetBurnPctArgs{Pct: 4})
	payload, err := keeper.GovernanceCall(f.pool.Address(), inner)
	require.NoError(t, err)
	require.ErrorIs(t, f.lattice.Call(f.ctx, gov, payload), ownable.ErrNotGovernance)
	require.NoError(t, f.lattice.Call(f.ctx, "council", payload))
	burn, err := f.pool.BurnPct(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(4), burn)

	require.NoError(t, f.lattice.Call(f.ctx, guardian, govcall.MustEncode(types.MethodPauseAll, nil)))
	paused, err := f.pool.IsPaused(f.ctx)
	require.NoError(t, err)
	require.True(t, paused)
}

func TestGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.wire(t)

	gs, err := f.lattice.ExportGenesis(f.ctx)
	require.NoError(t, err)
	require.NoError(t, gs.Validate())
	require.Equal(t, gov, gs.Owner)
	require.Equal(t, guardian, gs.ActivePauser)
	require.Equal(t, f.modules(), gs.Modules)

	require.Error(t, types.GenesisState{}.Validate())
	require.Error(t, types.GenesisState{Owner: gov, Modules: []string{"a", "a"}}.Validate())
}
