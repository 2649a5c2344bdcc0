package keeper

import (
	"context"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/pct"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// DepositStake pulls amount from caller into custody and credits
// (caller, role).
func (k Keeper) DepositStake(ctx context.Context, caller string, role types.Role, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		caller = strings.TrimSpace(caller)
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		newBalance, err := k.checkDeposit(ctx, caller, role, amount)
		if err != nil {
			return err
		}
		return k.nonReentrant(ctx, func() error {
			if err := k.pullTokens(ctx, caller, amount); err != nil {
				return err
			}
			if err := k.credit(ctx, caller, role, amount); err != nil {
				return err
			}
			emitStakeEvent(ctx, types.EventTypeStakeDeposited, caller, role, amount, newBalance)
			return nil
		})
	})
}

// AcknowledgeAndDeposit acknowledges the tax policy for caller and deposits
// amount in one call. The balance and the acknowledgement are committed
// before any external call, and the guard stays held until the token pull
// completes.
func (k Keeper) AcknowledgeAndDeposit(ctx context.Context, caller string, role types.Role, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		caller = strings.TrimSpace(caller)
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		newBalance, err := k.checkDeposit(ctx, caller, role, amount)
		if err != nil {
			return err
		}
		if err := k.requireAllowance(ctx, caller, amount); err != nil {
			return err
		}
		return k.nonReentrant(ctx, func() error {
			if err := k.Acknowledged.Set(ctx, caller); err != nil {
				return err
			}
			if err := k.credit(ctx, caller, role, amount); err != nil {
				return err
			}

			if k.taxPolicy != nil {
				if err := k.taxPolicy.AcknowledgeFor(ctx, k.address, caller); err != nil {
					return err
				}
			}
			if err := k.notifyJobRegistry(ctx, caller, role, amount); err != nil {
				return err
			}
			if err := k.pullTokens(ctx, caller, amount); err != nil {
				return err
			}

			ctx.EventManager().EmitEvent(sdk.NewEvent(
				types.EventTypeStakeAcknowledged,
				sdk.NewAttribute(types.AttributeKeyAccount, caller),
			))
			emitStakeEvent(ctx, types.EventTypeStakeDeposited, caller, role, amount, newBalance)
			return nil
		})
	})
}

// WithdrawStake returns amount of unlocked stake to caller.
func (k Keeper) WithdrawStake(ctx context.Context, caller string, role types.Role, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		caller = strings.TrimSpace(caller)
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := role.Validate(); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		balance, err := k.StakeOf(ctx, caller, role)
		if err != nil {
			return err
		}
		if balance.LT(amount) {
			return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s %s stake is %s, requested %s", caller, role, balance, amount)
		}
		locked, err := k.LockedStakeOf(ctx, caller, role)
		if err != nil {
			return err
		}
		if unlocked := balance.Sub(locked); unlocked.LT(amount) {
			return errorsmod.Wrapf(types.ErrStakeLocked, "%s of %s is locked", locked, balance)
		}
		remaining := balance.Sub(amount)
		if !remaining.IsZero() {
			minimum, err := k.EffectiveMinimum(ctx, role)
			if err != nil {
				return err
			}
			if remaining.LT(minimum) {
				return errorsmod.Wrapf(types.ErrBelowMinimumStake, "remaining %s below minimum %s", remaining, minimum)
			}
		}

		return k.nonReentrant(ctx, func() error {
			if err := k.debit(ctx, caller, role, amount); err != nil {
				return err
			}
			if err := k.token.Transfer(ctx, k.address, caller, amount); err != nil {
				return errorsmod.Wrapf(types.ErrTransferFailed, "withdraw to %s: %s", caller, err)
			}
			emitStakeEvent(ctx, types.EventTypeStakeWithdrawn, caller, role, amount, remaining)
			return nil
		})
	})
}

// Slash removes amount from (account, role) and pays it out between the
// employer and the treasury. Locked collateral is consumed first. An empty
// employer routes the employer share to the treasury.
func (k Keeper) Slash(
	ctx context.Context,
	caller, account string,
	role types.Role,
	amount sdkmath.Int,
	employer string,
) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.requireSlasher(ctx, caller); err != nil {
			return err
		}
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := role.Validate(); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		account, employer = strings.TrimSpace(account), strings.TrimSpace(employer)

		treasury, err := k.Treasury(ctx)
		if err != nil {
			return err
		}
		allowed, err := k.IsTreasuryAllowlisted(ctx, treasury)
		if err != nil {
			return err
		}
		if treasury == "" || !allowed {
			return errorsmod.Wrapf(types.ErrTreasuryNotAllowlisted, "treasury %q", treasury)
		}

		balance, err := k.StakeOf(ctx, account, role)
		if err != nil {
			return err
		}
		if balance.LT(amount) {
			return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s %s stake is %s, slash %s", account, role, balance, amount)
		}
		split, err := k.SlashingPercentages(ctx)
		if err != nil {
			return err
		}
		employerShare, treasuryShare := pct.Split(amount, split.EmployerPct)
		if employer == "" {
			treasuryShare = treasuryShare.Add(employerShare)
			employerShare = sdkmath.ZeroInt()
		}

		return k.nonReentrant(ctx, func() error {
			locked, err := k.LockedStakeOf(ctx, account, role)
			if err != nil {
				return err
			}
			if locked.IsPositive() {
				if err := k.setLock(ctx, account, role, locked.Sub(sdkmath.MinInt(locked, amount))); err != nil {
					return err
				}
			}
			if err := k.debit(ctx, account, role, amount); err != nil {
				return err
			}
			if employerShare.IsPositive() {
				if err := k.token.Transfer(ctx, k.address, employer, employerShare); err != nil {
					return errorsmod.Wrapf(types.ErrTransferFailed, "employer share: %s", err)
				}
			}
			if treasuryShare.IsPositive() {
				if err := k.token.Transfer(ctx, k.address, treasury, treasuryShare); err != nil {
					return errorsmod.Wrapf(types.ErrTransferFailed, "treasury share: %s", err)
				}
			}

			ctx.EventManager().EmitEvent(sdk.NewEvent(
				types.EventTypeStakeSlashed,
				sdk.NewAttribute(types.AttributeKeyAccount, account),
				sdk.NewAttribute(types.AttributeKeyRole, role.String()),
				sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
				sdk.NewAttribute(types.AttributeKeyEmployer, employer),
				sdk.NewAttribute(types.AttributeKeyEmployerShare, employerShare.String()),
				sdk.NewAttribute(types.AttributeKeyTreasury, treasury),
				sdk.NewAttribute(types.AttributeKeyTreasuryShare, treasuryShare.String()),
			))
			k.Logger(ctx).Info("stake slashed",
				"account", account, "role", role.String(), "amount", amount.String(), "slasher", caller)
			return nil
		})
	})
}

// LockStake reserves amount of (account, role) as job collateral.
func (k Keeper) LockStake(ctx context.Context, caller, account string, role types.Role, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.requireJobRegistry(ctx, caller); err != nil {
			return err
		}
		if err := k.Ownable.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := role.Validate(); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		balance, err := k.StakeOf(ctx, account, role)
		if err != nil {
			return err
		}
		locked, err := k.LockedStakeOf(ctx, account, role)
		if err != nil {
			return err
		}
		if balance.Sub(locked).LT(amount) {
			return errorsmod.Wrapf(types.ErrInsufficientBalance, "unlocked stake %s, lock %s", balance.Sub(locked), amount)
		}
		if err := k.setLock(ctx, account, role, locked.Add(amount)); err != nil {
			return err
		}
		emitStakeEvent(ctx, types.EventTypeStakeLocked, account, role, amount, locked.Add(amount))
		return nil
	})
}

// UnlockStake releases amount of previously locked collateral.
func (k Keeper) UnlockStake(ctx context.Context, caller, account string, role types.Role, amount sdkmath.Int) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.requireJobRegistry(ctx, caller); err != nil {
			return err
		}
		if err := role.Validate(); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		locked, err := k.LockedStakeOf(ctx, account, role)
		if err != nil {
			return err
		}
		if locked.LT(amount) {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "locked %s, unlock %s", locked, amount)
		}
		if err := k.setLock(ctx, account, role, locked.Sub(amount)); err != nil {
			return err
		}
		emitStakeEvent(ctx, types.EventTypeStakeUnlocked, account, role, amount, locked.Sub(amount))
		return nil
	})
}

// checkDeposit validates a deposit and returns the balance it would produce.
func (k Keeper) checkDeposit(ctx context.Context, caller string, role types.Role, amount sdkmath.Int) (sdkmath.Int, error) {
	if caller == "" {
		return sdkmath.Int{}, errorsmod.Wrap(types.ErrInvalidAddress, "caller cannot be empty")
	}
	if err := role.Validate(); err != nil {
		return sdkmath.Int{}, err
	}
	if err := requirePositive(amount); err != nil {
		return sdkmath.Int{}, err
	}
	balance, err := k.StakeOf(ctx, caller, role)
	if err != nil {
		return sdkmath.Int{}, err
	}
	newBalance := balance.Add(amount)
	minimum, err := k.EffectiveMinimum(ctx, role)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if newBalance.LT(minimum) {
		return sdkmath.Int{}, errorsmod.Wrapf(types.ErrBelowMinimumStake, "%s stake %s below minimum %s", role, newBalance, minimum)
	}
	return newBalance, nil
}

// nonReentrant holds the ledger guard while fn runs. The guard lives in the
// store, so calls nested inside fn observe it.
func (k Keeper) nonReentrant(ctx context.Context, fn func() error) error {
	locked, err := k.ReentrancyLock.Has(ctx)
	if err != nil {
		return err
	}
	if locked {
		return types.ErrReentrantCall
	}
	if err := k.ReentrancyLock.Set(ctx, true); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return k.ReentrancyLock.Remove(ctx)
}

func (k Keeper) requireAllowance(ctx context.Context, from string, amount sdkmath.Int) error {
	allowance, err := k.token.Allowance(ctx, from, k.address)
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientAllowance, "%s approved %s, need %s", from, allowance, amount)
	}
	return nil
}

func (k Keeper) pullTokens(ctx context.Context, from string, amount sdkmath.Int) error {
	if err := k.requireAllowance(ctx, from, amount); err != nil {
		return err
	}
	if err := k.token.TransferFrom(ctx, k.address, from, k.address, amount); err != nil {
		return errorsmod.Wrapf(types.ErrTransferFailed, "pull from %s: %s", from, err)
	}
	return nil
}

func (k Keeper) notifyJobRegistry(ctx context.Context, account string, role types.Role, amount sdkmath.Int) error {
	registry, err := k.JobRegistryAddress(ctx)
	if err != nil || registry == "" || k.resolver == nil {
		return err
	}
	contract, ok := k.resolver.Lookup(registry)
	if !ok {
		return nil
	}
	hook, ok := contract.(types.JobRegistryHook)
	if !ok {
		return nil
	}
	return hook.OnStakeAcknowledged(ctx, account, role, amount)
}

func (k Keeper) requireSlasher(ctx context.Context, caller string) error {
	caller = strings.TrimSpace(caller)
	registry, err := k.JobRegistryAddress(ctx)
	if err != nil {
		return err
	}
	dispute, err := k.DisputeModuleAddress(ctx)
	if err != nil {
		return err
	}
	if caller != "" && (caller == registry || caller == dispute) {
		return nil
	}
	return errorsmod.Wrapf(types.ErrUnauthorizedSlasher, "%q", caller)
}

func (k Keeper) requireJobRegistry(ctx context.Context, caller string) error {
	registry, err := k.JobRegistryAddress(ctx)
	if err != nil {
		return err
	}
	if registry == "" || strings.TrimSpace(caller) != registry {
		return errorsmod.Wrapf(types.ErrUnauthorizedJobRegistry, "%q", caller)
	}
	return nil
}

func (k Keeper) credit(ctx context.Context, account string, role types.Role, amount sdkmath.Int) error {
	balance, err := k.StakeOf(ctx, account, role)
	if err != nil {
		return err
	}
	if err := k.Stakes.Set(ctx, stakeKey(account, role), balance.Add(amount)); err != nil {
		return err
	}
	total, err := k.TotalStake(ctx, role)
	if err != nil {
		return err
	}
	return k.TotalStakes.Set(ctx, uint32(role), total.Add(amount))
}

// debit lowers the balance. Entries stay in the store at zero.
func (k Keeper) debit(ctx context.Context, account string, role types.Role, amount sdkmath.Int) error {
	balance, err := k.StakeOf(ctx, account, role)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s below %s", balance, amount)
	}
	if err := k.Stakes.Set(ctx, stakeKey(account, role), balance.Sub(amount)); err != nil {
		return err
	}
	total, err := k.TotalStake(ctx, role)
	if err != nil {
		return err
	}
	return k.TotalStakes.Set(ctx, uint32(role), total.Sub(amount))
}

func (k Keeper) setLock(ctx context.Context, account string, role types.Role, locked sdkmath.Int) error {
	if locked.IsZero() {
		return k.Locks.Remove(ctx, stakeKey(account, role))
	}
	return k.Locks.Set(ctx, stakeKey(account, role), locked)
}

func requirePositive(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

func emitStakeEvent(ctx sdk.Context, typ, account string, role types.Role, amount, balance sdkmath.Int) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		typ,
		sdk.NewAttribute(types.AttributeKeyAccount, account),
		sdk.NewAttribute(types.AttributeKeyRole, role.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		sdk.NewAttribute(types.AttributeKeyBalance, balance.String()),
	))
}
