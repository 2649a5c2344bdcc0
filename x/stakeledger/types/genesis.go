package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/sovereignlabor/kernel/internal/ownable"
)

// StakeEntry is one (account, role) balance.
type StakeEntry struct {
	Account string      `json:"account"`
	Role    Role        `json:"role"`
	Balance sdkmath.Int `json:"balance"`
	Locked  sdkmath.Int `json:"locked"`
}

// GenesisState is the stake ledger at chain start.
type GenesisState struct {
	Ownership         ownable.Snapshot `json:"ownership"`
	MinStake          sdkmath.Int      `json:"min_stake"`
	RoleMinimums      RoleMinimums     `json:"role_minimums"`
	SlashingSplit     SlashingSplit    `json:"slashing_split"`
	Treasury          string           `json:"treasury"`
	TreasuryAllowlist []string         `json:"treasury_allowlist"`
	JobRegistry       string           `json:"job_registry"`
	DisputeModule     string           `json:"dispute_module"`
	HamiltonianFeed   string           `json:"hamiltonian_feed"`
	AutoStake         AutoStakeConfig  `json:"auto_stake"`
	LastCheckpoint    int64            `json:"last_checkpoint"`
	Stakes            []StakeEntry     `json:"stakes"`
	Acknowledged      []string         `json:"acknowledged"`
}

// DefaultGenesis returns a ledger owned by owner with launch parameters.
func DefaultGenesis(owner string) *GenesisState {
	return &GenesisState{
		Ownership: ownable.Snapshot{Owner: owner},
		MinStake:  DefaultMinStake(),
		RoleMinimums: RoleMinimums{
			Agent:     sdkmath.ZeroInt(),
			Validator: sdkmath.ZeroInt(),
			Platform:  sdkmath.ZeroInt(),
		},
		SlashingSplit:     DefaultSlashingSplit(),
		TreasuryAllowlist: []string{},
		AutoStake:         DefaultAutoStakeConfig(),
		Stakes:            []StakeEntry{},
		Acknowledged:      []string{},
	}
}

func (gs GenesisState) Validate() error {
	if err := gs.Ownership.Validate(); err != nil {
		return err
	}
	if gs.MinStake.IsNil() || gs.MinStake.IsNegative() {
		return fmt.Errorf("min_stake must be non-negative")
	}
	if err := gs.RoleMinimums.Validate(); err != nil {
		return err
	}
	if err := gs.SlashingSplit.Validate(); err != nil {
		return err
	}
	if err := gs.AutoStake.Validate(); err != nil {
		return err
	}
	allowed := make(map[string]struct{}, len(gs.TreasuryAllowlist))
	for i, addr := range gs.TreasuryAllowlist {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("treasury allowlist entry %d is empty", i)
		}
		allowed[addr] = struct{}{}
	}
	if gs.Treasury != "" {
		if _, ok := allowed[gs.Treasury]; !ok {
			return fmt.Errorf("treasury %s is not allowlisted", gs.Treasury)
		}
	}
	seen := make(map[string]struct{}, len(gs.Stakes))
	for i, s := range gs.Stakes {
		if strings.TrimSpace(s.Account) == "" {
			return fmt.Errorf("stake entry %d has empty account", i)
		}
		if err := s.Role.Validate(); err != nil {
			return fmt.Errorf("stake entry %d: %w", i, err)
		}
		id := fmt.Sprintf("%s/%d", s.Account, s.Role)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate stake entry for %s", id)
		}
		seen[id] = struct{}{}
		if s.Balance.IsNil() || s.Balance.IsNegative() {
			return fmt.Errorf("stake entry %s has invalid balance", id)
		}
		if !s.Locked.IsNil() && (s.Locked.IsNegative() || s.Locked.GT(s.Balance)) {
			return fmt.Errorf("stake entry %s locks more than its balance", id)
		}
	}
	return nil
}
