package types

const (
	// ModuleName is the pause lattice namespace.
	ModuleName = "lattice"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	ModulesKey = []byte{0x01}

	// OwnableKeyBase is the first of four ownership prefixes. The lattice
	// keeps its active pauser in the ownable pauser slot.
	OwnableKeyBase byte = 0xF0
)
