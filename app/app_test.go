package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/policy"
	"github.com/sovereignlabor/kernel/internal/testutil"
	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
	feetypes "github.com/sovereignlabor/kernel/x/feepool/types"
	latticekeeper "github.com/sovereignlabor/kernel/x/lattice/keeper"
	latticetypes "github.com/sovereignlabor/kernel/x/lattice/types"
	ledgertypes "github.com/sovereignlabor/kernel/x/stakeledger/types"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
	tokentypes "github.com/sovereignlabor/kernel/x/token/types"
)

const (
	deployer = "deployer"
	gov      = "gov"
	guardian = "guardian"
	treasury = "treasury"
	jobs     = "job-registry"
	disputes = "dispute-module"
	alice    = "alice"
	employer = "employer"
)

type feed struct{ signal sdkmath.Int }

func (f *feed) Hamiltonian(context.Context) (sdkmath.Int, error) { return f.signal, nil }

type fixture struct {
	app *KernelApp
	db  dbm.DB
	ctx sdk.Context
	now time.Time
}

func testConfig(t *testing.T, withSink bool) Config {
	t.Helper()
	vars := map[string]string{
		"KERNEL_CHAIN_ID":           "sovereign-test-1",
		"KERNEL_MIN_STAKE":          "1000",
		"KERNEL_AUTOSTAKE_COOLDOWN": "1h",
	}
	if withSink {
		vars["KERNEL_AUDIT_SINK_PATH"] = filepath.Join(t.TempDir(), "audit.db")
	}
	cfg, err := ParseConfigFrom(vars)
	require.NoError(t, err)
	return cfg
}

// newFixture builds an app at genesis, owned by the deployer.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	return newFixtureFrom(t, cfg, nil)
}

// newFixtureFrom builds an app from gs, or from the default genesis when gs
// is nil.
func newFixtureFrom(t *testing.T, cfg Config, gs *GenesisState) *fixture {
	t.Helper()
	db := dbm.NewMemDB()
	app, err := New(log.NewNopLogger(), db, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	f := &fixture{app: app, db: db, now: testutil.GenesisTime}
	f.ctx = app.NewContext(f.now)
	if gs == nil {
		gs, err = app.DefaultGenesis(deployer)
		require.NoError(t, err)
	}
	require.NoError(t, app.InitGenesis(f.ctx, gs))
	return f
}

func bootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Deployer:        deployer,
		Governance:      gov,
		Guardian:        guardian,
		StakeTreasury:   treasury,
		FeePoolTreasury: treasury,
		Contributors:    []string{jobs},
		JobRegistry:     jobs,
		DisputeModule:   disputes,
	}
}

// setupApp returns a bootstrapped app whose configurator is owned by gov.
func setupApp(t *testing.T, withSink bool) *fixture {
	t.Helper()
	f := newFixture(t, testConfig(t, withSink))
	require.NoError(t, f.app.Bootstrap(f.ctx, bootstrapConfig()))
	require.NoError(t, f.app.ConfiguratorKeeper.AcceptOwnership(f.ctx, gov))
	f.nextBlock(t, time.Minute)
	return f
}

// nextBlock commits the current block and opens the next one.
func (f *fixture) nextBlock(t *testing.T, d time.Duration) {
	t.Helper()
	f.app.Commit()
	f.now = f.now.Add(d)
	f.ctx = f.app.NewContext(f.now)
}

// governanceCall wraps a module payload into a lattice governance call.
func (f *fixture) governanceCall(t *testing.T, target, method string, args any) configtypes.ConfigurationCall {
	t.Helper()
	payload, err := latticekeeper.GovernanceCall(target, govcall.MustEncode(method, args))
	require.NoError(t, err)
	return configtypes.ConfigurationCall{Target: f.app.LatticeKeeper.Address(), Payload: payload}
}

func (f *fixture) fund(t *testing.T, account string, amount int64) {
	t.Helper()
	amt := sdkmath.NewInt(amount)
	require.NoError(t, f.app.TokenKeeper.Mint(f.ctx, f.app.cfg.TokenMinter, account, amt))
	require.NoError(t, f.app.TokenKeeper.Approve(f.ctx, account, f.app.StakeLedgerKeeper.Address(), amt))
}

func (f *fixture) balance(t *testing.T, account string) string {
	t.Helper()
	bal, err := f.app.TokenKeeper.BalanceOf(f.ctx, account)
	require.NoError(t, err)
	return bal.String()
}

func TestBootstrapHandsOwnershipToGovernance(t *testing.T) {
	f := setupApp(t, false)
	app, ctx := f.app, f.ctx

	owner, err := app.ConfiguratorKeeper.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, gov, owner)

	owner, err = app.LatticeKeeper.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, app.ConfiguratorKeeper.Address(), owner)

	statuses, err := app.LatticeKeeper.ModuleStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		require.Equal(t, app.LatticeKeeper.Address(), s.Owner, s.Address)
		require.Equal(t, guardian, s.Pauser, s.Address)
		require.False(t, s.Paused)
	}

	ok, err := app.TaxPolicyKeeper.IsAcknowledger(ctx, app.StakeLedgerKeeper.Address())
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = app.FeePoolKeeper.IsContributor(ctx, jobs)
	require.NoError(t, err)
	require.True(t, ok)

	// the deployer kept nothing
	err = app.StakeLedgerKeeper.SetMinStake(ctx, deployer, sdkmath.NewInt(1))
	require.ErrorIs(t, err, ownable.ErrNotGovernance)
	err = app.LatticeKeeper.PauseAll(ctx, deployer)
	require.ErrorIs(t, err, ownable.ErrNotPauser)

	require.Equal(t, int64(1), app.LastBlockHeight())
	require.NoError(t, app.Invariants().AssertInvariants(ctx))
	require.Len(t, app.Invariants().Routes(), 6)
}

func TestBootstrapIsAtomic(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	cfg := bootstrapConfig()
	cfg.HamiltonianFeed = "unregistered-feed"

	err := f.app.Bootstrap(f.ctx, cfg)
	require.ErrorIs(t, err, ledgertypes.ErrInvalidHamiltonianFeed)
	require.ErrorContains(t, err, "bootstrap hamiltonian feed")
	require.False(t, testutil.HasEvent(f.ctx, EventTypeBootstrapped))

	owner, err := f.app.StakeLedgerKeeper.Owner(f.ctx)
	require.NoError(t, err)
	require.Equal(t, deployer, owner)
	ok, err := f.app.TaxPolicyKeeper.IsAcknowledger(f.ctx, f.app.StakeLedgerKeeper.Address())
	require.NoError(t, err)
	require.False(t, ok)

	// a retry with valid inputs succeeds from the untouched genesis state
	require.NoError(t, f.app.Bootstrap(f.ctx, bootstrapConfig()))
	require.True(t, testutil.HasEvent(f.ctx, EventTypeBootstrapped))
}

func TestBootstrapValidation(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	cases := map[string]func(*BootstrapConfig){
		"no deployer":        func(c *BootstrapConfig) { c.Deployer = "" },
		"no governance":      func(c *BootstrapConfig) { c.Governance = " " },
		"half module wiring": func(c *BootstrapConfig) { c.DisputeModule = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := bootstrapConfig()
			mutate(&cfg)
			require.ErrorIs(t, f.app.Bootstrap(f.ctx, cfg), ErrInvalidConfig)
		})
	}

	cfg := bootstrapConfig()
	cfg.Deployer = "stranger"
	require.ErrorIs(t, f.app.Bootstrap(f.ctx, cfg), ownable.ErrNotGovernance)
}

func TestGuardianPauseAndGovernanceUnpause(t *testing.T) {
	f := setupApp(t, false)
	app := f.app
	f.fund(t, alice, 5_000)

	require.NoError(t, app.LatticeKeeper.PauseAll(f.ctx, guardian))
	statuses, err := app.LatticeKeeper.ModuleStatuses(f.ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		require.True(t, s.Paused, s.Address)
	}

	err = app.StakeLedgerKeeper.AcknowledgeAndDeposit(f.ctx, alice, ledgertypes.RoleAgent, sdkmath.NewInt(1_000))
	require.ErrorIs(t, err, ownable.ErrPaused)
	err = app.FeePoolKeeper.ContributeFee(f.ctx, jobs, sdkmath.NewInt(1))
	require.ErrorIs(t, err, ownable.ErrPaused)

	// the guardian cannot unpause through governance paths
	_, err = app.ConfiguratorKeeper.Configure(f.ctx, guardian, configtypes.ConfigurationCall{
		Target:  app.LatticeKeeper.Address(),
		Payload: govcall.MustEncode(latticetypes.MethodUnpauseAll, nil),
	})
	require.ErrorIs(t, err, ownable.ErrNotGovernance)

	entry, err := app.ConfiguratorKeeper.Configure(f.ctx, gov, configtypes.ConfigurationCall{
		Target:       app.LatticeKeeper.Address(),
		Payload:      govcall.MustEncode(latticetypes.MethodUnpauseAll, nil),
		ModuleKey:    configtypes.ModuleKey("SystemPause"),
		ParameterKey: configtypes.ParameterKey("unpauseAll"),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), entry.Sequence)

	require.NoError(t, app.StakeLedgerKeeper.AcknowledgeAndDeposit(f.ctx, alice, ledgertypes.RoleAgent, sdkmath.NewInt(1_000)))
	require.NoError(t, app.Invariants().AssertInvariants(f.ctx))
}

func TestStakeSlashSplitsToEmployerAndTreasury(t *testing.T) {
	f := setupApp(t, false)
	app := f.app
	f.fund(t, alice, 2_000)

	require.NoError(t, app.StakeLedgerKeeper.AcknowledgeAndDeposit(f.ctx, alice, ledgertypes.RoleAgent, sdkmath.NewInt(2_000)))
	acked, err := app.TaxPolicyKeeper.HasAcknowledged(f.ctx, alice)
	require.NoError(t, err)
	require.True(t, acked)
	f.nextBlock(t, time.Minute)

	err = app.StakeLedgerKeeper.Slash(f.ctx, alice, alice, ledgertypes.RoleAgent, sdkmath.NewInt(100), employer)
	require.ErrorIs(t, err, ledgertypes.ErrUnauthorizedSlasher)

	require.NoError(t, app.StakeLedgerKeeper.Slash(f.ctx, disputes, alice, ledgertypes.RoleAgent, sdkmath.NewInt(1_000), employer))
	require.Equal(t, "950", f.balance(t, employer))
	require.Equal(t, "50", f.balance(t, treasury))

	stake, err := app.StakeLedgerKeeper.StakeOf(f.ctx, alice, ledgertypes.RoleAgent)
	require.NoError(t, err)
	require.Equal(t, "1000", stake.String())
	require.NoError(t, app.Invariants().AssertInvariants(f.ctx))
}

func TestAutoTuneThroughGovernance(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	app := f.app
	signal := &feed{signal: sdkmath.NewInt(5)}
	require.NoError(t, app.Registry.Register("hamiltonian", signal))

	cfg := bootstrapConfig()
	cfg.HamiltonianFeed = "hamiltonian"
	require.NoError(t, app.Bootstrap(f.ctx, cfg))
	require.NoError(t, app.ConfiguratorKeeper.AcceptOwnership(f.ctx, gov))
	f.nextBlock(t, time.Minute)

	auto, err := app.StakeLedgerKeeper.AutoStakeConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3_600), auto.CooldownSeconds)
	auto.UpperThreshold = sdkmath.NewInt(10)
	auto.LowerThreshold = sdkmath.NewInt(1)
	ledger := app.StakeLedgerKeeper.Address()

	_, err = app.ConfiguratorKeeper.ConfigureBatch(f.ctx, gov, []configtypes.ConfigurationCall{
		f.governanceCall(t, ledger, ledgertypes.MethodConfigureAutoStake, auto),
		f.governanceCall(t, ledger, ledgertypes.MethodAutoTuneStakes, ledgertypes.AutoTuneStakesArgs{Enabled: true}),
	})
	require.NoError(t, err)

	signal.signal = sdkmath.NewInt(50)
	res, err := app.StakeLedgerKeeper.CheckpointStake(f.ctx, "keeper-bot")
	require.NoError(t, err)
	require.True(t, res.Adjusted)
	require.Equal(t, "1100", res.Current.String())

	// cooldown holds within the hour
	f.nextBlock(t, 30*time.Minute)
	res, err = app.StakeLedgerKeeper.CheckpointStake(f.ctx, "keeper-bot")
	require.NoError(t, err)
	require.False(t, res.Applied)

	f.nextBlock(t, 31*time.Minute)
	res, err = app.StakeLedgerKeeper.CheckpointStake(f.ctx, "keeper-bot")
	require.NoError(t, err)
	require.Equal(t, "1210", res.Current.String())
}

func TestApplyPolicyRecordsAndSinksEntries(t *testing.T) {
	f := setupApp(t, true)
	app := f.app

	m, err := policy.ParseManifest([]byte(`
name: raise-minimums
guard: minStake < 5000 && employerPct == 95
params:
  minStakeWei: 2000
  slashBps: 1000
  burnBpsOfFee: 300
  treasury: dao-treasury
  globalPauser: new-guardian
`))
	require.NoError(t, err)

	res, err := app.ApplyPolicy(f.ctx, gov, m)
	require.NoError(t, err)
	// minStake, roleMinimums, slashing, burn, allowlist + treasury, pauser
	require.Len(t, res.Entries, 7)
	require.Equal(t, len(res.Entries), res.Ingested)
	require.Contains(t, res.Summary, "## Audit entries")

	minStake, err := app.StakeLedgerKeeper.MinStake(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "2000", minStake.String())
	split, err := app.StakeLedgerKeeper.SlashingPercentages(f.ctx)
	require.NoError(t, err)
	require.Equal(t, ledgertypes.SlashingSplit{EmployerPct: 90, TreasuryPct: 10}, split)
	burn, err := app.FeePoolKeeper.BurnPct(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(3), burn)
	pauser, err := app.LatticeKeeper.ActivePauser(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "new-guardian", pauser)

	sink := app.AuditSink()
	require.NoError(t, sink.Verify(context.Background()))
	head, ok, err := sink.Head(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	last, err := app.ConfiguratorKeeper.LastRecordHash(f.ctx)
	require.NoError(t, err)
	require.Equal(t, last, head.RecordHash)

	// applying the same manifest again is a no-op
	f.nextBlock(t, time.Minute)
	m.Guard = ""
	res, err = app.ApplyPolicy(f.ctx, gov, m)
	require.NoError(t, err)
	require.True(t, res.Plan.Empty())
	require.Empty(t, res.Entries)
}

func TestApplyPolicyIsAtomic(t *testing.T) {
	f := setupApp(t, true)
	app := f.app

	m := policy.Manifest{Name: "steal", Params: map[string]any{policy.ParamMinStake: 5_000}}
	_, err := app.ApplyPolicy(f.ctx, "mallory", m)
	require.ErrorIs(t, err, ownable.ErrNotGovernance)

	m.Guard = "minStake > 1000"
	_, err = app.ApplyPolicy(f.ctx, gov, m)
	require.ErrorIs(t, err, policy.ErrGuardRejected)

	minStake, err := app.StakeLedgerKeeper.MinStake(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "1000", minStake.String())
	_, ok, err := app.AuditSink().Head(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConfigureBatchRollsBackOnFailingCall(t *testing.T) {
	f := setupApp(t, false)
	app := f.app
	ledger := app.StakeLedgerKeeper.Address()
	pool := app.FeePoolKeeper.Address()

	calls := []configtypes.ConfigurationCall{
		f.governanceCall(t, ledger, ledgertypes.MethodSetMinStake, ledgertypes.SetMinStakeArgs{Amount: sdkmath.NewInt(1_500)}),
		f.governanceCall(t, ledger, ledgertypes.MethodSetSlashingPercentages, ledgertypes.SetSlashingPercentagesArgs{EmployerPct: 80, TreasuryPct: 20}),
		// not allowlisted
		f.governanceCall(t, ledger, ledgertypes.MethodSetTreasury, ledgertypes.AddressArgs{Address: "rogue"}),
		f.governanceCall(t, pool, feetypes.MethodSetBurnPct, feetypes.SetBurnPctArgs{Pct: 4}),
		f.governanceCall(t, ledger, ledgertypes.MethodSetMinStake, ledgertypes.SetMinStakeArgs{Amount: sdkmath.NewInt(1_600)}),
	}
	_, err := app.ConfiguratorKeeper.ConfigureBatch(f.ctx, gov, calls)
	require.ErrorIs(t, err, latticetypes.ErrGovernanceCallFailed)

	minStake, err := app.StakeLedgerKeeper.MinStake(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "1000", minStake.String())
	split, err := app.StakeLedgerKeeper.SlashingPercentages(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(95), split.EmployerPct)
	last, err := app.ConfiguratorKeeper.LastRecordHash(f.ctx)
	require.NoError(t, err)
	require.Equal(t, configtypes.GenesisHash, last)
	require.Zero(t, testutil.CountEvents(f.ctx, configtypes.EventTypeParameterUpdated))
}

func TestCommittedStateSurvivesReload(t *testing.T) {
	f := setupApp(t, false)
	height := f.app.LastBlockHeight()

	reloaded, err := New(log.NewNopLogger(), f.db, f.app.Config())
	require.NoError(t, err)
	require.Equal(t, height, reloaded.LastBlockHeight())

	ctx := reloaded.QueryContext()
	owner, err := reloaded.LatticeKeeper.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, reloaded.ConfiguratorKeeper.Address(), owner)
	require.Equal(t, f.app.ModuleAddresses(), reloaded.ModuleAddresses())
}

func TestGenesisExportImportRoundTrip(t *testing.T) {
	f := setupApp(t, false)
	f.fund(t, alice, 1_500)
	require.NoError(t, f.app.StakeLedgerKeeper.AcknowledgeAndDeposit(f.ctx, alice, ledgertypes.RoleValidator, sdkmath.NewInt(1_200)))
	_, err := f.app.ConfiguratorKeeper.ConfigureBatch(f.ctx, gov, []configtypes.ConfigurationCall{
		f.governanceCall(t, f.app.StakeLedgerKeeper.Address(), ledgertypes.MethodSetMinStake,
			ledgertypes.SetMinStakeArgs{Amount: sdkmath.NewInt(1_100)}),
	})
	require.NoError(t, err)

	exported, err := f.app.ExportGenesis(f.ctx)
	require.NoError(t, err)
	bz, err := json.Marshal(exported)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, bz, 0o600))
	loaded, err := LoadGenesisFile(path)
	require.NoError(t, err)

	other := newFixtureFrom(t, testConfig(t, false), loaded)
	again, err := other.app.ExportGenesis(other.ctx)
	require.NoError(t, err)
	bz2, err := json.Marshal(again)
	require.NoError(t, err)
	require.JSONEq(t, string(bz), string(bz2))
	require.NoError(t, other.app.Invariants().AssertInvariants(other.ctx))
}

func TestGenesisValidateRequiresEverySection(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	gs, err := f.app.DefaultGenesis(deployer)
	require.NoError(t, err)
	gs.FeePool = nil
	require.ErrorContains(t, gs.Validate(), "feepool is missing")
	require.Error(t, f.app.InitGenesis(f.ctx, gs))
}

func TestModulesDriveGenesisAndInvariants(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	require.Equal(t, []string{
		tokentypes.ModuleName,
		taxtypes.ModuleName,
		ledgertypes.ModuleName,
		feetypes.ModuleName,
		latticetypes.ModuleName,
		configtypes.ModuleName,
	}, f.app.ModuleNames())

	gs, err := f.app.DefaultGenesis(deployer)
	require.NoError(t, err)
	sections, err := gs.sections()
	require.NoError(t, err)
	for _, m := range f.app.modules {
		require.NoError(t, m.ValidateGenesis(sections[m.Name()]), m.Name())
		require.ErrorContains(t, m.ValidateGenesis(json.RawMessage(`{"broken":`)), m.Name())
	}

	routes := f.app.Invariants().Routes()
	require.Len(t, routes, 6)
	require.Contains(t, routes, latticetypes.ModuleName+"/wired-modules-owned")
}
