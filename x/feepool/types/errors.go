package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrInvalidAmount          = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrNotContributor         = errorsmod.Register(ModuleName, 3, "caller is not a registered fee contributor")
	ErrTreasuryNotAllowlisted = errorsmod.Register(ModuleName, 4, "treasury not allowlisted")
	ErrInvalidAddress         = errorsmod.Register(ModuleName, 5, "invalid address")
	ErrTransferFailed         = errorsmod.Register(ModuleName, 6, "token transfer failed")
)
