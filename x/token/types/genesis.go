package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Balance is one genesis account balance.
type Balance struct {
	Address string      `json:"address"`
	Amount  sdkmath.Int `json:"amount"`
}

// GenesisState seeds the token ledger.
type GenesisState struct {
	Balances []Balance `json:"balances"`
}

// DefaultGenesis returns an empty ledger.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Balances: []Balance{}}
}

// Validate rejects duplicate or non-positive balances.
func (gs GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(gs.Balances))
	for i, b := range gs.Balances {
		addr := strings.TrimSpace(b.Address)
		if addr == "" {
			return fmt.Errorf("balance at index %d has empty address", i)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("duplicate balance for %s", addr)
		}
		seen[addr] = struct{}{}
		if b.Amount.IsNil() || !b.Amount.IsPositive() {
			return fmt.Errorf("balance for %s must be positive", addr)
		}
	}
	return nil
}
