package types

import (
	"fmt"
	"strings"
)

// GenesisState is the lattice configuration at chain start. Modules are only
// checked for ownership when they are next rewired.
type GenesisState struct {
	Owner        string   `json:"owner"`
	ActivePauser string   `json:"active_pauser"`
	Modules      []string `json:"modules"`
}

func DefaultGenesis(owner string) *GenesisState {
	return &GenesisState{Owner: owner, Modules: []string{}}
}

func (gs GenesisState) Validate() error {
	if strings.TrimSpace(gs.Owner) == "" {
		return fmt.Errorf("lattice owner cannot be empty")
	}
	seen := make(map[string]struct{}, len(gs.Modules))
	for i, m := range gs.Modules {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("module %d is empty", i)
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("module %s listed twice", m)
		}
		seen[m] = struct{}{}
	}
	return nil
}
