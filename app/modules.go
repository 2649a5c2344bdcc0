package app

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Module is the genesis and invariant surface every kernel module exposes to
// the app.
type Module interface {
	Name() string
	ValidateGenesis(bz json.RawMessage) error
	InitGenesis(ctx sdk.Context, bz json.RawMessage) error
	ExportGenesis(ctx sdk.Context) (json.RawMessage, error)
	RegisterInvariants(ir sdk.InvariantRegistry)
}

// ModuleNames lists the wired modules in genesis order.
func (app *KernelApp) ModuleNames() []string {
	names := make([]string, 0, len(app.modules))
	for _, m := range app.modules {
		names = append(names, m.Name())
	}
	return names
}
