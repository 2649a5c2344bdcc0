package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrNotAcknowledger = errorsmod.Register(ModuleName, 2, "caller may not acknowledge on behalf of others")
	ErrInvalidPolicy   = errorsmod.Register(ModuleName, 3, "invalid policy")
	ErrInvalidAddress  = errorsmod.Register(ModuleName, 4, "invalid address")
)
