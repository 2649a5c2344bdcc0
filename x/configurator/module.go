package configurator

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/x/configurator/keeper"
	"github.com/sovereignlabor/kernel/x/configurator/types"
)

// AppModule exposes the configuration batcher keeper to the app's genesis and invariant
// wiring.
type AppModule struct {
	keeper keeper.Keeper
}

func NewAppModule(k keeper.Keeper) AppModule {
	return AppModule{keeper: k}
}

// Name returns the module's name.
func (AppModule) Name() string {
	return types.ModuleName
}

// ValidateGenesis performs genesis state validation.
func (AppModule) ValidateGenesis(bz json.RawMessage) error {
	gs, err := decodeGenesis(bz)
	if err != nil {
		return err
	}
	return gs.Validate()
}

// InitGenesis performs the module's genesis initialization.
func (am AppModule) InitGenesis(ctx sdk.Context, bz json.RawMessage) error {
	gs, err := decodeGenesis(bz)
	if err != nil {
		return err
	}
	return am.keeper.InitGenesis(ctx, gs)
}

// ExportGenesis returns the module's exported genesis state.
func (am AppModule) ExportGenesis(ctx sdk.Context) (json.RawMessage, error) {
	gs, err := am.keeper.ExportGenesis(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(gs)
}

// RegisterInvariants registers the module's invariants.
func (am AppModule) RegisterInvariants(ir sdk.InvariantRegistry) {
	keeper.RegisterInvariants(ir, am.keeper)
}

func decodeGenesis(bz json.RawMessage) (*types.GenesisState, error) {
	var gs types.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	return &gs, nil
}
