package types

import (
	"fmt"
	"strings"

	"github.com/sovereignlabor/kernel/internal/ownable"
)

// GenesisState is the tax policy at chain start.
type GenesisState struct {
	Ownership       ownable.Snapshot `json:"ownership"`
	PolicyURI       string           `json:"policy_uri"`
	Acknowledgement string           `json:"acknowledgement"`
	Version         uint64           `json:"version"`
	Acknowledgers   []string         `json:"acknowledgers"`
	Acknowledged    []Acknowledgment `json:"acknowledged"`
}

// Acknowledgment records the policy version an account accepted.
type Acknowledgment struct {
	Account string `json:"account"`
	Version uint64 `json:"version"`
}

// DefaultGenesis returns the launch policy owned by owner.
func DefaultGenesis(owner string) *GenesisState {
	return &GenesisState{
		Ownership:       ownable.Snapshot{Owner: owner},
		PolicyURI:       DefaultPolicyURI,
		Acknowledgement: DefaultAcknowledgement,
		Version:         1,
		Acknowledgers:   []string{},
		Acknowledged:    []Acknowledgment{},
	}
}

func (gs GenesisState) Validate() error {
	if err := gs.Ownership.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(gs.PolicyURI) == "" {
		return fmt.Errorf("policy uri must be set")
	}
	if gs.Version == 0 {
		return fmt.Errorf("policy version must be positive")
	}
	for i, a := range gs.Acknowledgers {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("acknowledger at index %d is empty", i)
		}
	}
	for i, a := range gs.Acknowledged {
		if strings.TrimSpace(a.Account) == "" {
			return fmt.Errorf("acknowledgment at index %d has empty account", i)
		}
		if a.Version > gs.Version {
			return fmt.Errorf("acknowledgment for %s references future version %d", a.Account, a.Version)
		}
	}
	return nil
}
