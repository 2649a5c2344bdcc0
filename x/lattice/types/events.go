package types

const (
	EventTypeModulesUpdated         = "lattice_modules_updated"
	EventTypePausersUpdated         = "pausers_updated"
	EventTypeGovernanceCallExecuted = "governance_call_executed"
	EventTypeAllPaused              = "all_paused"
	EventTypeAllUnpaused            = "all_unpaused"

	AttributeKeyModules = "modules"
	AttributeKeyPauser  = "pauser"
	AttributeKeyTarget  = "target"
	AttributeKeyMethod  = "method"
	AttributeKeyCaller  = "caller"
	AttributeKeyCount   = "count"
)
