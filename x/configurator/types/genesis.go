package types

import (
	"fmt"

	"github.com/sovereignlabor/kernel/internal/ownable"
)

// GenesisState carries ownership and the audit log so the chain survives
// export and import.
type GenesisState struct {
	Ownership ownable.Snapshot `json:"ownership"`
	Entries   []AuditEntry     `json:"entries"`
}

func DefaultGenesis(owner string) *GenesisState {
	return &GenesisState{
		Ownership: ownable.Snapshot{Owner: owner},
		Entries:   []AuditEntry{},
	}
}

func (gs GenesisState) Validate() error {
	if err := gs.Ownership.Validate(); err != nil {
		return err
	}
	if len(gs.Entries) > 0 && gs.Entries[0].Sequence != 1 {
		return fmt.Errorf("audit log must start at sequence 1, got %d", gs.Entries[0].Sequence)
	}
	return VerifyChain(GenesisHash, gs.Entries)
}
