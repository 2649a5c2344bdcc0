// Package app wires the kernel modules onto one multistore and exposes the
// deployment, policy and health entry points used by operators.
package app

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/auditsink"
	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/x/configurator"
	configkeeper "github.com/sovereignlabor/kernel/x/configurator/keeper"
	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
	"github.com/sovereignlabor/kernel/x/feepool"
	feekeeper "github.com/sovereignlabor/kernel/x/feepool/keeper"
	feetypes "github.com/sovereignlabor/kernel/x/feepool/types"
	"github.com/sovereignlabor/kernel/x/lattice"
	latticekeeper "github.com/sovereignlabor/kernel/x/lattice/keeper"
	latticetypes "github.com/sovereignlabor/kernel/x/lattice/types"
	"github.com/sovereignlabor/kernel/x/stakeledger"
	ledgerkeeper "github.com/sovereignlabor/kernel/x/stakeledger/keeper"
	ledgertypes "github.com/sovereignlabor/kernel/x/stakeledger/types"
	"github.com/sovereignlabor/kernel/x/taxpolicy"
	taxkeeper "github.com/sovereignlabor/kernel/x/taxpolicy/keeper"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
	"github.com/sovereignlabor/kernel/x/token"
	tokenkeeper "github.com/sovereignlabor/kernel/x/token/keeper"
	tokentypes "github.com/sovereignlabor/kernel/x/token/types"
)

const Name = "sovereign-kernel"

// storeKeys lists every module store in mount order.
var storeKeys = []string{
	tokentypes.StoreKey,
	taxtypes.StoreKey,
	ledgertypes.StoreKey,
	feetypes.StoreKey,
	latticetypes.StoreKey,
	configtypes.StoreKey,
}

// KernelApp holds the keepers of the labor-market kernel over a single
// committing multistore.
type KernelApp struct {
	logger log.Logger
	cfg    Config

	mu   sync.Mutex
	cms  *rootmulti.Store
	keys map[string]*storetypes.KVStoreKey

	// Registry resolves every module address to its keeper. Feeds and
	// job-registry hooks are registered here by the embedding node.
	Registry   *govcall.Registry
	invariants *InvariantRegistry
	auditSink  *auditsink.Store
	modules    []Module

	TokenKeeper        tokenkeeper.Keeper
	TaxPolicyKeeper    taxkeeper.Keeper
	StakeLedgerKeeper  ledgerkeeper.Keeper
	FeePoolKeeper      feekeeper.Keeper
	LatticeKeeper      latticekeeper.Keeper
	ConfiguratorKeeper configkeeper.Keeper
}

// New mounts the module stores on db, builds the keepers and registers their
// callables and invariants. The audit sink is opened when cfg names a path.
func New(logger log.Logger, db dbm.DB, cfg Config) (*KernelApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	app := &KernelApp{
		logger:     logger.With("module", "app"),
		cfg:        cfg,
		cms:        rootmulti.NewStore(db, logger, storemetrics.NoOpMetrics{}),
		keys:       storetypes.NewKVStoreKeys(storeKeys...),
		Registry:   govcall.NewRegistry(),
		invariants: NewInvariantRegistry(),
	}
	for _, name := range storeKeys {
		app.cms.MountStoreWithDB(app.keys[name], storetypes.StoreTypeIAVL, nil)
	}
	if err := app.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load latest version: %w", err)
	}

	app.initKeepers()
	if err := app.registerCallables(); err != nil {
		return nil, err
	}
	app.registerInvariants()

	if cfg.AuditSinkPath != "" {
		sink, err := auditsink.Open(cfg.AuditSinkPath,
			auditsink.WithLogger(logger),
			auditsink.WithCacheSize(cfg.AuditSinkCache),
		)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open audit sink: %w", err), app.cms.Close())
		}
		app.auditSink = sink
	}
	app.logger.Info("kernel app initialized", "chain_id", cfg.ChainID, "height", app.LastBlockHeight())
	return app, nil
}

func (app *KernelApp) initKeepers() {
	svc := func(name string) store.KVStoreService { return runtime.NewKVStoreService(app.keys[name]) }

	app.TokenKeeper = tokenkeeper.NewKeeper(svc(tokentypes.StoreKey), app.cfg.TokenMinter)
	app.TaxPolicyKeeper = taxkeeper.NewKeeper(svc(taxtypes.StoreKey))
	app.StakeLedgerKeeper = ledgerkeeper.NewKeeper(
		svc(ledgertypes.StoreKey),
		app.TokenKeeper,
		app.TaxPolicyKeeper,
		app.Registry,
	)
	app.FeePoolKeeper = feekeeper.NewKeeper(svc(feetypes.StoreKey), app.TokenKeeper)
	app.LatticeKeeper = latticekeeper.NewKeeper(svc(latticetypes.StoreKey), app.Registry)
	app.ConfiguratorKeeper = configkeeper.NewKeeper(svc(configtypes.StoreKey), app.Registry)

	// genesis order: token first, governance layers last
	app.modules = []Module{
		token.NewAppModule(app.TokenKeeper),
		taxpolicy.NewAppModule(app.TaxPolicyKeeper),
		stakeledger.NewAppModule(app.StakeLedgerKeeper),
		feepool.NewAppModule(app.FeePoolKeeper),
		lattice.NewAppModule(app.LatticeKeeper),
		configurator.NewAppModule(app.ConfiguratorKeeper),
	}
}

func (app *KernelApp) registerCallables() error {
	for _, c := range []govcall.Callable{
		app.TaxPolicyKeeper,
		app.StakeLedgerKeeper,
		app.FeePoolKeeper,
		app.LatticeKeeper,
	} {
		if err := app.Registry.RegisterCallable(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Address(), err)
		}
	}
	return nil
}

func (app *KernelApp) registerInvariants() {
	for _, m := range app.modules {
		m.RegisterInvariants(app.invariants)
	}
}

func (app *KernelApp) Name() string { return Name }

func (app *KernelApp) Logger() log.Logger { return app.logger }

func (app *KernelApp) Config() Config { return app.cfg }

// AuditSink returns the off-chain audit store, or nil when none is configured.
func (app *KernelApp) AuditSink() *auditsink.Store { return app.auditSink }

// Invariants returns the registry every module registered its invariants in.
func (app *KernelApp) Invariants() *InvariantRegistry { return app.invariants }

// StoreKey returns the mounted key of a module store.
func (app *KernelApp) StoreKey(name string) *storetypes.KVStoreKey { return app.keys[name] }

func (app *KernelApp) LastBlockHeight() int64 {
	return app.cms.LastCommitID().Version
}

// NewContext returns a context for the next block at blockTime. State
// written through it is persisted by Commit.
func (app *KernelApp) NewContext(blockTime time.Time) sdk.Context {
	header := tmproto.Header{
		ChainID: app.cfg.ChainID,
		Height:  app.LastBlockHeight() + 1,
		Time:    blockTime.UTC(),
	}
	return sdk.NewContext(app.cms, header, false, app.logger)
}

// QueryContext returns a cached view of the current state. Writes made
// through it are discarded.
func (app *KernelApp) QueryContext() sdk.Context {
	header := tmproto.Header{
		ChainID: app.cfg.ChainID,
		Height:  app.LastBlockHeight(),
		Time:    time.Now().UTC(),
	}
	return sdk.NewContext(app.cms.CacheMultiStore(), header, true, app.logger)
}

// Commit persists the working state as a new version.
func (app *KernelApp) Commit() storetypes.CommitID {
	app.mu.Lock()
	defer app.mu.Unlock()
	id := app.cms.Commit()
	app.logger.Debug("committed", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return id
}

// ModuleAddresses maps module names to their addresses.
func (app *KernelApp) ModuleAddresses() map[string]string {
	return map[string]string{
		taxtypes.ModuleName:     app.TaxPolicyKeeper.Address(),
		ledgertypes.ModuleName:  app.StakeLedgerKeeper.Address(),
		feetypes.ModuleName:     app.FeePoolKeeper.Address(),
		latticetypes.ModuleName: app.LatticeKeeper.Address(),
		configtypes.ModuleName:  app.ConfiguratorKeeper.Address(),
	}
}

// InvariantRegistry collects module invariants by route and runs them on
// demand.
type InvariantRegistry struct {
	routes map[string]sdk.Invariant
}

var _ sdk.InvariantRegistry = (*InvariantRegistry)(nil)

func NewInvariantRegistry() *InvariantRegistry {
	return &InvariantRegistry{routes: make(map[string]sdk.Invariant)}
}

func (r *InvariantRegistry) RegisterRoute(moduleName, route string, invar sdk.Invariant) {
	r.routes[moduleName+"/"+route] = invar
}

// Routes returns the registered routes in sorted order.
func (r *InvariantRegistry) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for route := range r.routes {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}

// BrokenInvariant reports one failed invariant route.
type BrokenInvariant struct {
	Route   string `json:"route"`
	Message string `json:"message"`
}

// Check runs every invariant and returns the broken ones.
func (r *InvariantRegistry) Check(ctx sdk.Context) []BrokenInvariant {
	var broken []BrokenInvariant
	for _, route := range r.Routes() {
		if msg, isBroken := r.routes[route](ctx); isBroken {
			broken = append(broken, BrokenInvariant{Route: route, Message: msg})
		}
	}
	return broken
}

// AssertInvariants runs every invariant and fails with all broken routes.
func (r *InvariantRegistry) AssertInvariants(ctx sdk.Context) error {
	broken := r.Check(ctx)
	if len(broken) == 0 {
		return nil
	}
	errs := make([]error, 0, len(broken))
	for _, b := range broken {
		ctx.Logger().Error("invariant broken", "route", b.Route, "msg", b.Message)
		errs = append(errs, fmt.Errorf("%s: %s", b.Route, b.Message))
	}
	return errors.Join(errs...)
}
