package types

const (
	// ModuleName is the settlement token namespace.
	ModuleName = "token"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// Decimals is the number of fractional digits of one whole token.
	Decimals uint8 = 18
)

var (
	BalancesKey   = []byte{0x01}
	AllowancesKey = []byte{0x02}
	SupplyKey     = []byte{0x03}
)
