package types

const (
	// ModuleName is the fee pool namespace.
	ModuleName = "feepool"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// DefaultBurnPct is the share of distributed fees burned at launch.
	DefaultBurnPct uint32 = 1
)

var (
	PendingFeesKey       = []byte{0x01}
	BurnPctKey           = []byte{0x02}
	TreasuryKey          = []byte{0x03}
	TreasuryAllowlistKey = []byte{0x04}
	ContributorsKey      = []byte{0x05}

	// OwnableKeyBase is the first of four ownership prefixes.
	OwnableKeyBase byte = 0xF0
)
