package types

// Methods accepted by the lattice call router.
const (
	MethodSetModules            = "setModules"
	MethodSetGlobalPauser       = "setGlobalPauser"
	MethodRefreshPausers        = "refreshPausers"
	MethodExecuteGovernanceCall = "executeGovernanceCall"
	MethodPauseAll              = "pauseAll"
	MethodUnpauseAll            = "unpauseAll"
	MethodTransferOwnership     = "transferOwnership"
)

type SetModulesArgs struct {
	Modules []string `json:"modules"`
}

type AddressArgs struct {
	Address string `json:"address"`
}

// ExecuteGovernanceCallArgs carries a nested payload for target. The payload
// is opaque to the lattice.
type ExecuteGovernanceCallArgs struct {
	Target  string `json:"target"`
	Payload []byte `json:"payload"`
}
