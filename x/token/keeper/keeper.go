package keeper

import (
	"context"
	"errors"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/token/types"
)

// Keeper is the settlement token ledger: balances, allowances and supply in
// atomic units.
type Keeper struct {
	storeService store.KVStoreService
	authority    string

	Balances   collections.Map[string, sdkmath.Int]
	Allowances collections.Map[collections.Pair[string, string], sdkmath.Int]
	Supply     collections.Item[sdkmath.Int]
}

// NewKeeper creates the token keeper. authority is the only account allowed
// to mint.
func NewKeeper(storeService store.KVStoreService, authority string) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		storeService: storeService,
		authority:    authority,
		Balances: collections.NewMap(
			sb,
			collections.NewPrefix(types.BalancesKey),
			"balances",
			collections.StringKey,
			sdk.IntValue,
		),
		Allowances: collections.NewMap(
			sb,
			collections.NewPrefix(types.AllowancesKey),
			"allowances",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
			sdk.IntValue,
		),
		Supply: collections.NewItem(
			sb,
			collections.NewPrefix(types.SupplyKey),
			"supply",
			sdk.IntValue,
		),
	}
}

func (k Keeper) GetAuthority() string {
	return k.authority
}

// Decimals returns the token precision.
func (k Keeper) Decimals() uint8 {
	return types.Decimals
}

func (k Keeper) BalanceOf(ctx context.Context, addr string) (sdkmath.Int, error) {
	return getInt(ctx, k.Balances, strings.TrimSpace(addr))
}

func (k Keeper) Allowance(ctx context.Context, owner, spender string) (sdkmath.Int, error) {
	return getInt(ctx, k.Allowances, collections.Join(strings.TrimSpace(owner), strings.TrimSpace(spender)))
}

func (k Keeper) TotalSupply(ctx context.Context) (sdkmath.Int, error) {
	v, err := k.Supply.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

// Mint creates amount new tokens for to.
func (k Keeper) Mint(ctx context.Context, caller, to string, amount sdkmath.Int) error {
	if strings.TrimSpace(caller) != k.authority {
		return errorsmod.Wrapf(types.ErrUnauthorized, "mint by %q", caller)
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errorsmod.Wrap(types.ErrInvalidAddress, "mint recipient cannot be empty")
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := k.credit(ctx, to, amount); err != nil {
		return err
	}
	supply, err := k.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if err := k.Supply.Set(ctx, supply.Add(amount)); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeMint,
		sdk.NewAttribute(types.AttributeKeyTo, to),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// Burn destroys amount of from's tokens.
func (k Keeper) Burn(ctx context.Context, from string, amount sdkmath.Int) error {
	from = strings.TrimSpace(from)
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := k.debit(ctx, from, amount); err != nil {
		return err
	}
	supply, err := k.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if err := k.Supply.Set(ctx, supply.Sub(amount)); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeBurn,
		sdk.NewAttribute(types.AttributeKeyFrom, from),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// Approve sets spender's allowance over owner's tokens.
func (k Keeper) Approve(ctx context.Context, owner, spender string, amount sdkmath.Int) error {
	owner, spender = strings.TrimSpace(owner), strings.TrimSpace(spender)
	if owner == "" || spender == "" {
		return errorsmod.Wrap(types.ErrInvalidAddress, "owner and spender are required")
	}
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "allowance cannot be negative")
	}
	if err := k.Allowances.Set(ctx, collections.Join(owner, spender), amount); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeApproval,
		sdk.NewAttribute(types.AttributeKeyOwner, owner),
		sdk.NewAttribute(types.AttributeKeySpender, spender),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// Transfer moves amount from from to to.
func (k Keeper) Transfer(ctx context.Context, from, to string, amount sdkmath.Int) error {
	return k.move(ctx, strings.TrimSpace(from), strings.TrimSpace(to), amount)
}

// TransferFrom moves amount from from to to, spending spender's allowance.
func (k Keeper) TransferFrom(ctx context.Context, spender, from, to string, amount sdkmath.Int) error {
	spender, from = strings.TrimSpace(spender), strings.TrimSpace(from)
	if err := requirePositive(amount); err != nil {
		return err
	}
	allowance, err := k.Allowance(ctx, from, spender)
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientAllowance, "%s allows %s to spend %s, need %s", from, spender, allowance, amount)
	}
	if err := k.move(ctx, from, strings.TrimSpace(to), amount); err != nil {
		return err
	}
	return k.Allowances.Set(ctx, collections.Join(from, spender), allowance.Sub(amount))
}

func (k Keeper) move(ctx context.Context, from, to string, amount sdkmath.Int) error {
	if from == "" || to == "" {
		return errorsmod.Wrap(types.ErrInvalidAddress, "sender and recipient are required")
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := k.debit(ctx, from, amount); err != nil {
		return err
	}
	if err := k.credit(ctx, to, amount); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeTransfer,
		sdk.NewAttribute(types.AttributeKeyFrom, from),
		sdk.NewAttribute(types.AttributeKeyTo, to),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

func (k Keeper) debit(ctx context.Context, addr string, amount sdkmath.Int) error {
	bal, err := k.BalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientFunds, "%s has %s, need %s", addr, bal, amount)
	}
	rest := bal.Sub(amount)
	if rest.IsZero() {
		return k.Balances.Remove(ctx, addr)
	}
	return k.Balances.Set(ctx, addr, rest)
}

func (k Keeper) credit(ctx context.Context, addr string, amount sdkmath.Int) error {
	bal, err := k.BalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	return k.Balances.Set(ctx, addr, bal.Add(amount))
}

func requirePositive(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

func getInt[K any](ctx context.Context, m collections.Map[K, sdkmath.Int], key K) (sdkmath.Int, error) {
	v, err := m.Get(ctx, key)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}
