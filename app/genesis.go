package app

import (
	"encoding/json"
	"fmt"
	"os"

	sdk "github.com/cosmos/cosmos-sdk/types"

	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
	feetypes "github.com/sovereignlabor/kernel/x/feepool/types"
	latticetypes "github.com/sovereignlabor/kernel/x/lattice/types"
	ledgertypes "github.com/sovereignlabor/kernel/x/stakeledger/types"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
	tokentypes "github.com/sovereignlabor/kernel/x/token/types"
)

// GenesisState is the state of every kernel module at chain start.
type GenesisState struct {
	Token        *tokentypes.GenesisState   `json:"token"`
	TaxPolicy    *taxtypes.GenesisState     `json:"taxpolicy"`
	StakeLedger  *ledgertypes.GenesisState  `json:"stakeledger"`
	FeePool      *feetypes.GenesisState     `json:"feepool"`
	Lattice      *latticetypes.GenesisState `json:"lattice"`
	Configurator *configtypes.GenesisState  `json:"configurator"`
}

// DefaultGenesis seeds every module from the app config with deployer as
// the initial owner. Bootstrap later hands ownership to governance.
func (app *KernelApp) DefaultGenesis(deployer string) (*GenesisState, error) {
	minStake, err := app.cfg.MinStakeAmount()
	if err != nil {
		return nil, err
	}

	tax := taxtypes.DefaultGenesis(deployer)
	tax.PolicyURI = app.cfg.PolicyURI
	if app.cfg.PolicyAckText != "" {
		tax.Acknowledgement = app.cfg.PolicyAckText
	}

	ledger := ledgertypes.DefaultGenesis(deployer)
	ledger.MinStake = minStake
	ledger.SlashingSplit = ledgertypes.SlashingSplit{
		EmployerPct: app.cfg.EmployerSlashPct,
		TreasuryPct: app.cfg.TreasurySlashPct,
	}
	ledger.AutoStake.IncreasePct = app.cfg.AutoStakeIncreasePct
	ledger.AutoStake.DecreasePct = app.cfg.AutoStakeDecreasePct
	ledger.AutoStake.CooldownSeconds = uint64(app.cfg.AutoStakeCooldown.Seconds())

	pool := feetypes.DefaultGenesis(deployer)
	pool.BurnPct = app.cfg.BurnPct

	gs := &GenesisState{
		Token:        tokentypes.DefaultGenesis(),
		TaxPolicy:    tax,
		StakeLedger:  ledger,
		FeePool:      pool,
		Lattice:      latticetypes.DefaultGenesis(deployer),
		Configurator: configtypes.DefaultGenesis(deployer),
	}
	return gs, gs.Validate()
}

// Validate checks every module section.
func (gs GenesisState) Validate() error {
	sections := []struct {
		name    string
		v       interface{ Validate() error }
		missing bool
	}{
		{tokentypes.ModuleName, gs.Token, gs.Token == nil},
		{taxtypes.ModuleName, gs.TaxPolicy, gs.TaxPolicy == nil},
		{ledgertypes.ModuleName, gs.StakeLedger, gs.StakeLedger == nil},
		{feetypes.ModuleName, gs.FeePool, gs.FeePool == nil},
		{latticetypes.ModuleName, gs.Lattice, gs.Lattice == nil},
		{configtypes.ModuleName, gs.Configurator, gs.Configurator == nil},
	}
	for _, s := range sections {
		if s.missing {
			return fmt.Errorf("genesis section %s is missing", s.name)
		}
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("genesis section %s: %w", s.name, err)
		}
	}
	return nil
}

// InitGenesis loads gs into state, one module at a time in genesis order.
func (app *KernelApp) InitGenesis(ctx sdk.Context, gs *GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	sections, err := gs.sections()
	if err != nil {
		return err
	}
	for _, m := range app.modules {
		bz, ok := sections[m.Name()]
		if !ok {
			return fmt.Errorf("genesis section %s is missing", m.Name())
		}
		if err := m.InitGenesis(ctx, bz); err != nil {
			return fmt.Errorf("init genesis %s: %w", m.Name(), err)
		}
	}
	app.logger.Info("genesis initialized", "height", ctx.BlockHeight(), "modules", len(app.modules))
	return nil
}

// ExportGenesis snapshots every module.
func (app *KernelApp) ExportGenesis(ctx sdk.Context) (*GenesisState, error) {
	sections := make(map[string]json.RawMessage, len(app.modules))
	for _, m := range app.modules {
		bz, err := m.ExportGenesis(ctx)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", m.Name(), err)
		}
		sections[m.Name()] = bz
	}
	bz, err := json.Marshal(sections)
	if err != nil {
		return nil, err
	}
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("decode exported genesis: %w", err)
	}
	return &gs, nil
}

// sections splits gs into raw per-module documents keyed by module name.
func (gs GenesisState) sections() (map[string]json.RawMessage, error) {
	bz, err := json.Marshal(gs)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(bz, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadGenesisFile reads a JSON genesis document.
func LoadGenesisFile(path string) (*GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	return &gs, gs.Validate()
}
