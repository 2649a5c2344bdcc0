package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// TokenKeeper is the settlement token fees are paid in.
type TokenKeeper interface {
	Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error
	Burn(ctx context.Context, from string, amount sdkmath.Int) error
	BalanceOf(ctx context.Context, addr string) (sdkmath.Int, error)
}
