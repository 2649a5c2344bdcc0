package policy

import (
	"math/big"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/expr-lang/expr"
	"github.com/google/uuid"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/pct"
	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
	feetypes "github.com/sovereignlabor/kernel/x/feepool/types"
	latticekeeper "github.com/sovereignlabor/kernel/x/lattice/keeper"
	latticetypes "github.com/sovereignlabor/kernel/x/lattice/types"
	ledgertypes "github.com/sovereignlabor/kernel/x/stakeledger/types"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

// Targets are the module addresses plans route to.
type Targets struct {
	Lattice     string
	StakeLedger string
	FeePool     string
	TaxPolicy   string
}

// Snapshot is the current value of every parameter a manifest can change.
type Snapshot struct {
	MinStake        sdkmath.Int
	RoleMinimums    ledgertypes.RoleMinimums
	Slashing        ledgertypes.SlashingSplit
	StakeTreasury   string
	BurnPct         uint32
	FeePoolTreasury string
	PolicyURI       string
	GlobalPauser    string
}

// Operation is one planned call plus a human readable change line.
type Operation struct {
	Description string
	Module      string
	Parameter   string
	From        string
	To          string
	Unit        string
	Call        configtypes.ConfigurationCall
}

// Plan is an ordered configuration batch derived from one manifest.
type Plan struct {
	ID         string
	Name       string
	Operations []Operation
	Ignored    []string
}

// Calls returns the batch to hand to the configuration batcher.
func (p Plan) Calls() []configtypes.ConfigurationCall {
	out := make([]configtypes.ConfigurationCall, len(p.Operations))
	for i, op := range p.Operations {
		out[i] = op.Call
	}
	return out
}

// Empty reports whether the manifest matched the snapshot.
func (p Plan) Empty() bool { return len(p.Operations) == 0 }

// Planner builds plans against a fixed set of targets.
type Planner struct {
	targets Targets
	logger  log.Logger
	newID   func() string
}

type Option func(*Planner)

// WithLogger sets the planner logger. The default discards output.
func WithLogger(logger log.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDSource overrides plan ID generation.
func WithIDSource(fn func() string) Option {
	return func(p *Planner) {
		if fn != nil {
			p.newID = fn
		}
	}
}

func NewPlanner(targets Targets, opts ...Option) *Planner {
	p := &Planner{
		targets: targets,
		logger:  log.NewNopLogger(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan compares m against snap and returns the calls needed to reach the
// manifest. Parameters already at their desired value are skipped.
func (p *Planner) Plan(m Manifest, snap Snapshot) (Plan, error) {
	if err := p.checkGuard(m, snap); err != nil {
		return Plan{}, err
	}
	b := &builder{planner: p}

	steps := []func(Manifest, Snapshot) error{
		b.minStake,
		b.roleMinimums,
		b.slashing,
		b.burnPct,
		b.stakeTreasury,
		b.feePoolTreasury,
		b.policyURI,
		b.globalPauser,
	}
	for _, step := range steps {
		if err := step(m, snap); err != nil {
			return Plan{}, err
		}
	}

	plan := Plan{
		ID:         p.newID(),
		Name:       m.Name,
		Operations: b.ops,
		Ignored:    m.Unknown(),
	}
	if len(plan.Ignored) > 0 {
		p.logger.Warn("ignoring unknown policy parameters", "plan", plan.ID, "params", strings.Join(plan.Ignored, ","))
	}
	p.logger.Info("policy plan built", "plan", plan.ID, "name", plan.Name, "operations", len(plan.Operations))
	return plan, nil
}

// GuardEnv exposes the snapshot to guard expressions. Amounts are floats in
// base units; percentages are integers.
func GuardEnv(m Manifest, snap Snapshot) map[string]any {
	return map[string]any{
		"minStake":          toFloat(snap.MinStake),
		"agentMinStake":     toFloat(snap.RoleMinimums.Agent),
		"validatorMinStake": toFloat(snap.RoleMinimums.Validator),
		"platformMinStake":  toFloat(snap.RoleMinimums.Platform),
		"employerPct":       int(snap.Slashing.EmployerPct),
		"treasuryPct":       int(snap.Slashing.TreasuryPct),
		"burnPct":           int(snap.BurnPct),
		"stakeTreasury":     snap.StakeTreasury,
		"feePoolTreasury":   snap.FeePoolTreasury,
		"policyURI":         snap.PolicyURI,
		"globalPauser":      snap.GlobalPauser,
		"params":            m.Params,
	}
}

func (p *Planner) checkGuard(m Manifest, snap Snapshot) error {
	guard := strings.TrimSpace(m.Guard)
	if guard == "" {
		return nil
	}
	env := GuardEnv(m, snap)
	program, err := expr.Compile(guard, expr.Env(env), expr.AsBool())
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidGuard, "%s", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidGuard, "%s", err)
	}
	if ok, _ := out.(bool); !ok {
		p.logger.Warn("policy guard rejected snapshot", "name", m.Name, "guard", guard)
		return errorsmod.Wrapf(ErrGuardRejected, "%s", guard)
	}
	return nil
}

func toFloat(v sdkmath.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

type builder struct {
	planner *Planner
	ops     []Operation
}

// viaLattice appends a call the lattice forwards to target.
func (b *builder) viaLattice(target, method string, args any, op Operation) error {
	inner, err := govcall.Encode(method, args)
	if err != nil {
		return err
	}
	payload, err := latticekeeper.GovernanceCall(target, inner)
	if err != nil {
		return err
	}
	op.Call.Target = b.planner.targets.Lattice
	op.Call.Payload = payload
	b.ops = append(b.ops, op)
	return nil
}

func (b *builder) minStake(m Manifest, snap Snapshot) error {
	desired, ok, err := m.amount(ParamMinStake)
	if err != nil || !ok {
		return err
	}
	if !desired.IsPositive() {
		return errorsmod.Wrap(ErrInvalidManifest, "minimum stake must be greater than zero")
	}
	current := orZero(snap.MinStake)
	if desired.Equal(current) {
		return nil
	}
	op, err := uintOp("StakeLedger.setMinStake", "StakeLedger", "minStake", "wei",
		configtypes.ModuleStakeManager, configtypes.ParamStakeMinStake,
		[]sdkmath.Int{current}, []sdkmath.Int{desired})
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.StakeLedger, ledgertypes.MethodSetMinStake,
		ledgertypes.SetMinStakeArgs{Amount: desired}, op)
}

// roleMinimums resolves each role from its own parameter, then minStakeWei,
// then the current value.
func (b *builder) roleMinimums(m Manifest, snap Snapshot) error {
	if !m.has(ParamAgentMinStake) && !m.has(ParamValidatorMinStake) && !m.has(ParamPlatformMinStake) && !m.has(ParamMinStake) {
		return nil
	}
	fallback, hasFallback, err := m.amount(ParamMinStake)
	if err != nil {
		return err
	}
	resolve := func(key string, current sdkmath.Int) (sdkmath.Int, error) {
		v, ok, err := m.amount(key)
		if err != nil {
			return sdkmath.Int{}, err
		}
		switch {
		case ok && v.IsPositive():
			return v, nil
		case hasFallback && fallback.IsPositive():
			return fallback, nil
		default:
			return current, nil
		}
	}
	cur := snap.RoleMinimums
	curAgent := cur.For(ledgertypes.RoleAgent)
	curValidator := cur.For(ledgertypes.RoleValidator)
	curPlatform := cur.For(ledgertypes.RolePlatform)

	agent, err := resolve(ParamAgentMinStake, curAgent)
	if err != nil {
		return err
	}
	validator, err := resolve(ParamValidatorMinStake, curValidator)
	if err != nil {
		return err
	}
	platform, err := resolve(ParamPlatformMinStake, curPlatform)
	if err != nil {
		return err
	}
	if agent.Equal(curAgent) && validator.Equal(curValidator) && platform.Equal(curPlatform) {
		return nil
	}
	op, err := uintOp("StakeLedger.setRoleMinimums", "StakeLedger", "roleMinimums", "wei",
		configtypes.ModuleStakeManager, configtypes.ParamStakeRoleMinimums,
		[]sdkmath.Int{curAgent, curValidator, curPlatform}, []sdkmath.Int{agent, validator, platform})
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.StakeLedger, ledgertypes.MethodSetRoleMinimums,
		ledgertypes.SetRoleMinimumsArgs{Agent: agent, Validator: validator, Platform: platform}, op)
}

// slashing maps slashBps to a treasury share, the employer receiving the
// rest.
func (b *builder) slashing(m Manifest, snap Snapshot) error {
	slashBps, ok, err := m.uint32(ParamSlashBps)
	if err != nil || !ok {
		return err
	}
	if slashBps > pct.BpsBase {
		return errorsmod.Wrapf(ErrInvalidManifest, "%s must be between 0 and 10000", ParamSlashBps)
	}
	employer, treasury, err := pct.NormalizeSplit(pct.BpsBase-slashBps, slashBps)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidManifest, "%s: %s", ParamSlashBps, err)
	}
	if employer == snap.Slashing.EmployerPct && treasury == snap.Slashing.TreasuryPct {
		return nil
	}
	op, err := uintOp("StakeLedger.setSlashingPercentages", "StakeLedger", "slashingPercentages", "bps",
		configtypes.ModuleStakeManager, configtypes.ParamStakeSlashing,
		uintsOf(pct.ToBps(snap.Slashing.EmployerPct), pct.ToBps(snap.Slashing.TreasuryPct)),
		uintsOf(pct.ToBps(employer), pct.ToBps(treasury)))
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.StakeLedger, ledgertypes.MethodSetSlashingPercentages,
		ledgertypes.SetSlashingPercentagesArgs{EmployerPct: employer, TreasuryPct: treasury}, op)
}

func (b *builder) burnPct(m Manifest, snap Snapshot) error {
	bps, ok, err := m.uint32(ParamBurnBpsOfFee)
	if err != nil || !ok {
		return err
	}
	burn, err := pct.FromBps(ParamBurnBpsOfFee, bps)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidManifest, "%s", err)
	}
	if burn == snap.BurnPct {
		return nil
	}
	op, err := uintOp("FeePool.setBurnPct", "FeePool", "burnPct", "pct",
		configtypes.ModuleFeePool, configtypes.ParamFeePoolBurnPct,
		uintsOf(snap.BurnPct), uintsOf(burn))
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.FeePool, feetypes.MethodSetBurnPct, feetypes.SetBurnPctArgs{Pct: burn}, op)
}

// stakeTreasury allowlists the new treasury before pointing the ledger at it.
func (b *builder) stakeTreasury(m Manifest, snap Snapshot) error {
	addr, ok, err := m.address(ParamStakeTreasury)
	if err != nil || !ok || addr == snap.StakeTreasury {
		return err
	}
	allow, err := stringOp("StakeLedger.setTreasuryAllowlist", "StakeLedger", "treasuryAllowlist",
		configtypes.ModuleStakeManager, configtypes.ParamStakeTreasury, "", addr)
	if err != nil {
		return err
	}
	if err := b.viaLattice(b.planner.targets.StakeLedger, ledgertypes.MethodSetTreasuryAllowlist,
		ledgertypes.AllowlistArgs{Address: addr, Allowed: true}, allow); err != nil {
		return err
	}
	set, err := stringOp("StakeLedger.setTreasury", "StakeLedger", "treasury",
		configtypes.ModuleStakeManager, configtypes.ParamStakeTreasury, snap.StakeTreasury, addr)
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.StakeLedger, ledgertypes.MethodSetTreasury, ledgertypes.AddressArgs{Address: addr}, set)
}

func (b *builder) feePoolTreasury(m Manifest, snap Snapshot) error {
	addr, ok, err := m.address(ParamFeePoolTreasury)
	if err != nil || !ok || addr == snap.FeePoolTreasury {
		return err
	}
	allow, err := stringOp("FeePool.setTreasuryAllowlist", "FeePool", "treasuryAllowlist",
		configtypes.ModuleFeePool, configtypes.ParamFeePoolTreasury, "", addr)
	if err != nil {
		return err
	}
	if err := b.viaLattice(b.planner.targets.FeePool, feetypes.MethodSetTreasuryAllowlist,
		feetypes.AllowlistArgs{Address: addr, Allowed: true}, allow); err != nil {
		return err
	}
	set, err := stringOp("FeePool.setTreasury", "FeePool", "treasury",
		configtypes.ModuleFeePool, configtypes.ParamFeePoolTreasury, snap.FeePoolTreasury, addr)
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.FeePool, feetypes.MethodSetTreasury, feetypes.AddressArgs{Address: addr}, set)
}

func (b *builder) policyURI(m Manifest, snap Snapshot) error {
	uri, ok, err := m.address(ParamTaxPolicyURI)
	if err != nil || !ok || uri == snap.PolicyURI {
		return err
	}
	op, err := stringOp("TaxPolicy.setPolicyURI", "TaxPolicy", "policyURI",
		configtypes.ModuleTaxPolicy, configtypes.ParamTaxPolicyURI, snap.PolicyURI, uri)
	if err != nil {
		return err
	}
	return b.viaLattice(b.planner.targets.TaxPolicy, taxtypes.MethodSetPolicyURI, taxtypes.SetPolicyURIArgs{URI: uri}, op)
}

// globalPauser is a lattice setting, so it is called on the lattice directly.
func (b *builder) globalPauser(m Manifest, snap Snapshot) error {
	pauser, ok, err := m.address(ParamGlobalPauser)
	if err != nil || !ok || pauser == snap.GlobalPauser {
		return err
	}
	op, err := stringOp("SystemPause.setGlobalPauser", "SystemPause", "globalPauser",
		configtypes.ModuleSystemPause, configtypes.ParamGlobalPauser, snap.GlobalPauser, pauser)
	if err != nil {
		return err
	}
	payload, err := govcall.Encode(latticetypes.MethodSetGlobalPauser, latticetypes.AddressArgs{Address: pauser})
	if err != nil {
		return err
	}
	op.Call.Target = b.planner.targets.Lattice
	op.Call.Payload = payload
	b.ops = append(b.ops, op)
	return nil
}

func uintOp(desc, module, param, unit string, moduleKey, paramKey common.Hash, from, to []sdkmath.Int) (Operation, error) {
	oldValue, err := EncodeUints(from...)
	if err != nil {
		return Operation{}, err
	}
	newValue, err := EncodeUints(to...)
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		Description: desc,
		Module:      module,
		Parameter:   param,
		From:        joinInts(from),
		To:          joinInts(to),
		Unit:        unit,
		Call: configtypes.ConfigurationCall{
			ModuleKey:    moduleKey,
			ParameterKey: paramKey,
			OldValue:     oldValue,
			NewValue:     newValue,
		},
	}, nil
}

func stringOp(desc, module, param string, moduleKey, paramKey common.Hash, from, to string) (Operation, error) {
	oldValue, err := EncodeString(from)
	if err != nil {
		return Operation{}, err
	}
	newValue, err := EncodeString(to)
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		Description: desc,
		Module:      module,
		Parameter:   param,
		From:        orNA(from),
		To:          to,
		Call: configtypes.ConfigurationCall{
			ModuleKey:    moduleKey,
			ParameterKey: paramKey,
			OldValue:     oldValue,
			NewValue:     newValue,
		},
	}, nil
}

func joinInts(values []sdkmath.Int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = orZero(v).String()
	}
	return strings.Join(parts, "/")
}

func orZero(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
