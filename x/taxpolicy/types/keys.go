package types

const (
	// ModuleName is the tax policy namespace.
	ModuleName = "taxpolicy"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	PolicyURIKey       = []byte{0x01}
	AcknowledgementKey = []byte{0x02}
	VersionKey         = []byte{0x03}
	AcknowledgersKey   = []byte{0x04}
	AcknowledgedKey    = []byte{0x05}

	// OwnableKeyBase is the first of four ownership prefixes.
	OwnableKeyBase byte = 0xF0
)

const (
	DefaultPolicyURI       = "ipfs://sovereign-tax-policy"
	DefaultAcknowledgement = "Participants own every tax obligation; the platform stays exempt."
)
