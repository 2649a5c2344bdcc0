package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrInvalidAmount         = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrInvalidAddress        = errorsmod.Register(ModuleName, 3, "invalid address")
	ErrInsufficientFunds     = errorsmod.Register(ModuleName, 4, "insufficient funds")
	ErrInsufficientAllowance = errorsmod.Register(ModuleName, 5, "insufficient allowance")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 6, "unauthorized")
)
