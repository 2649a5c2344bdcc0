package types

const (
	// ModuleName is the stake ledger namespace.
	ModuleName = "stakeledger"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	StakesKey            = []byte{0x01}
	LocksKey             = []byte{0x02}
	TotalStakeKey        = []byte{0x03}
	MinStakeKey          = []byte{0x04}
	RoleMinimumsKey      = []byte{0x05}
	SlashingSplitKey     = []byte{0x06}
	TreasuryKey          = []byte{0x07}
	TreasuryAllowlistKey = []byte{0x08}
	JobRegistryKey       = []byte{0x09}
	DisputeModuleKey     = []byte{0x0A}
	HamiltonianFeedKey   = []byte{0x0B}
	AutoStakeConfigKey   = []byte{0x0C}
	LastCheckpointKey    = []byte{0x0D}
	ReentrancyLockKey    = []byte{0x0E}
	AcknowledgedKey      = []byte{0x0F}

	// OwnableKeyBase is the first of four ownership prefixes.
	OwnableKeyBase byte = 0xF0
)
