package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrInvalidAmount           = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrInvalidRole             = errorsmod.Register(ModuleName, 3, "invalid role")
	ErrInsufficientBalance     = errorsmod.Register(ModuleName, 4, "insufficient stake balance")
	ErrInsufficientAllowance   = errorsmod.Register(ModuleName, 5, "insufficient token allowance")
	ErrTransferFailed          = errorsmod.Register(ModuleName, 6, "token transfer failed")
	ErrStakeLocked             = errorsmod.Register(ModuleName, 7, "stake is locked")
	ErrBelowMinimumStake       = errorsmod.Register(ModuleName, 8, "stake below minimum")
	ErrUnauthorizedSlasher     = errorsmod.Register(ModuleName, 9, "caller is not a registered slasher")
	ErrTreasuryNotAllowlisted  = errorsmod.Register(ModuleName, 10, "treasury not allowlisted")
	ErrInvalidHamiltonianFeed  = errorsmod.Register(ModuleName, 11, "invalid hamiltonian feed")
	ErrReentrantCall           = errorsmod.Register(ModuleName, 12, "reentrant call")
	ErrInvalidAutoStakeConfig  = errorsmod.Register(ModuleName, 13, "invalid auto-stake configuration")
	ErrInvalidAddress          = errorsmod.Register(ModuleName, 14, "invalid address")
	ErrUnauthorizedJobRegistry = errorsmod.Register(ModuleName, 15, "caller is not the job registry")
	ErrInvariantBroken         = errorsmod.Register(ModuleName, 16, "ledger invariant broken")
)
