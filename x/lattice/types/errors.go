package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrModuleNotOwned       = errorsmod.Register(ModuleName, 2, "module is not owned by the lattice")
	ErrDuplicateModule      = errorsmod.Register(ModuleName, 3, "module listed twice")
	ErrGovernanceCallFailed = errorsmod.Register(ModuleName, 4, "governance call failed")
	ErrInvalidAddress       = errorsmod.Register(ModuleName, 5, "invalid address")
	ErrEmptyModuleSet       = errorsmod.Register(ModuleName, 6, "module set cannot be empty")
	ErrModuleNotGovernable  = errorsmod.Register(ModuleName, 7, "module is not governable")
	ErrModuleCallFailed     = errorsmod.Register(ModuleName, 8, "module call failed")
	ErrPauserMismatch       = errorsmod.Register(ModuleName, 9, "module pauser differs from the active pauser")
)
