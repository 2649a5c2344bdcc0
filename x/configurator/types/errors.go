package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrEmptyBatch     = errorsmod.Register(ModuleName, 2, "configuration batch is empty")
	ErrInvalidCall    = errorsmod.Register(ModuleName, 3, "invalid configuration call")
	ErrCallFailed     = errorsmod.Register(ModuleName, 4, "configuration call failed")
	ErrBrokenChain    = errorsmod.Register(ModuleName, 5, "audit hash chain broken")
	ErrEntryNotFound  = errorsmod.Register(ModuleName, 6, "audit entry not found")
	ErrInvalidAddress = errorsmod.Register(ModuleName, 7, "invalid address")
)
