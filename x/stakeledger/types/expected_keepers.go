package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// TokenKeeper is the settlement token the ledger custodies.
type TokenKeeper interface {
	TransferFrom(ctx context.Context, spender, from, to string, amount sdkmath.Int) error
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, addr string) (sdkmath.Int, error)
	Allowance(ctx context.Context, owner, spender string) (sdkmath.Int, error)
}

// TaxPolicyKeeper records policy acknowledgements on behalf of stakers.
type TaxPolicyKeeper interface {
	AcknowledgeFor(ctx context.Context, caller, account string) error
}

// ContractResolver resolves registered addresses to their implementations.
type ContractResolver interface {
	Lookup(addr string) (any, bool)
}

// JobRegistryHook is called back by AcknowledgeAndDeposit once the new
// stake is credited.
type JobRegistryHook interface {
	OnStakeAcknowledged(ctx context.Context, account string, role Role, amount sdkmath.Int) error
}

// HamiltonianFeed is the signal source consumed by the auto-tune checkpoint.
type HamiltonianFeed interface {
	Hamiltonian(ctx context.Context) (sdkmath.Int, error)
}
