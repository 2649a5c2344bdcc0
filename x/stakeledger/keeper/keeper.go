package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/ownable"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	"github.com/sovereignlabor/kernel/x/stakeledger/types"
)

// Keeper is the stake ledger: role-scoped collateral held in custody for
// agents, validators and platforms.
type Keeper struct {
	storeService store.KVStoreService
	address      string
	router       *govcall.Dispatcher

	token     types.TokenKeeper
	taxPolicy types.TaxPolicyKeeper
	resolver  types.ContractResolver

	Ownable           ownable.State
	Stakes            collections.Map[collections.Pair[string, uint32], sdkmath.Int]
	Locks             collections.Map[collections.Pair[string, uint32], sdkmath.Int]
	TotalStakes       collections.Map[uint32, sdkmath.Int]
	MinStakeValue     collections.Item[sdkmath.Int]
	RoleMinimums      collections.Map[uint32, sdkmath.Int]
	SlashingSplit     collections.Item[string]
	TreasuryAddr      collections.Item[string]
	TreasuryAllowlist collections.KeySet[string]
	JobRegistry       collections.Item[string]
	DisputeModule     collections.Item[string]
	FeedAddr          collections.Item[string]
	AutoStake         collections.Item[string]
	LastCheckpoint    collections.Item[int64]
	ReentrancyLock    collections.Item[bool]
	Acknowledged      collections.KeySet[string]
}

var _ ownable.Governable = Keeper{}

// NewKeeper creates the stake ledger keeper. taxPolicy may be nil, in which
// case AcknowledgeAndDeposit only records the ledger-side flag.
func NewKeeper(
	storeService store.KVStoreService,
	token types.TokenKeeper,
	taxPolicy types.TaxPolicyKeeper,
	resolver types.ContractResolver,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	stakeKey := collections.PairKeyCodec(collections.StringKey, collections.Uint32Key)

	k := Keeper{
		storeService: storeService,
		address:      authtypes.NewModuleAddress(types.ModuleName).String(),
		token:        token,
		taxPolicy:    taxPolicy,
		resolver:     resolver,
		Ownable:      ownable.NewState(sb, types.OwnableKeyBase, types.ModuleName, false),
		Stakes:       collections.NewMap(sb, collections.NewPrefix(types.StakesKey), "stakes", stakeKey, sdk.IntValue),
		Locks:        collections.NewMap(sb, collections.NewPrefix(types.LocksKey), "locks", stakeKey, sdk.IntValue),
		TotalStakes: collections.NewMap(
			sb,
			collections.NewPrefix(types.TotalStakeKey),
			"total_stakes",
			collections.Uint32Key,
			sdk.IntValue,
		),
		MinStakeValue: collections.NewItem(sb, collections.NewPrefix(types.MinStakeKey), "min_stake", sdk.IntValue),
		RoleMinimums: collections.NewMap(
			sb,
			collections.NewPrefix(types.RoleMinimumsKey),
			"role_minimums",
			collections.Uint32Key,
			sdk.IntValue,
		),
		SlashingSplit: collections.NewItem(sb, collections.NewPrefix(types.SlashingSplitKey), "slashing_split", collections.StringValue),
		TreasuryAddr:  collections.NewItem(sb, collections.NewPrefix(types.TreasuryKey), "treasury", collections.StringValue),
		TreasuryAllowlist: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.TreasuryAllowlistKey),
			"treasury_allowlist",
			collections.StringKey,
		),
		JobRegistry:    collections.NewItem(sb, collections.NewPrefix(types.JobRegistryKey), "job_registry", collections.StringValue),
		DisputeModule:  collections.NewItem(sb, collections.NewPrefix(types.DisputeModuleKey), "dispute_module", collections.StringValue),
		FeedAddr:       collections.NewItem(sb, collections.NewPrefix(types.HamiltonianFeedKey), "hamiltonian_feed", collections.StringValue),
		AutoStake:      collections.NewItem(sb, collections.NewPrefix(types.AutoStakeConfigKey), "auto_stake", collections.StringValue),
		LastCheckpoint: collections.NewItem(sb, collections.NewPrefix(types.LastCheckpointKey), "last_checkpoint", collections.Int64Value),
		ReentrancyLock: collections.NewItem(sb, collections.NewPrefix(types.ReentrancyLockKey), "reentrancy_lock", collections.BoolValue),
		Acknowledged: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AcknowledgedKey),
			"acknowledged",
			collections.StringKey,
		),
	}
	k.router = k.newRouter()
	return k
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// Address is the custody account of the ledger.
func (k Keeper) Address() string { return k.address }

func (k Keeper) Owner(ctx context.Context) (string, error) {
	return k.Ownable.GetOwner(ctx)
}

func (k Keeper) Pauser(ctx context.Context) (string, error) {
	return k.Ownable.GetPauser(ctx)
}

func (k Keeper) IsPaused(ctx context.Context) (bool, error) {
	return k.Ownable.IsPaused(ctx)
}

func (k Keeper) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.TransferOwnership(ctx, caller, newOwner)
	})
}

func (k Keeper) SetPauser(ctx context.Context, caller, pauser string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.SetPauser(ctx, caller, pauser)
	})
}

func (k Keeper) Pause(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.Pause(ctx, caller)
	})
}

func (k Keeper) Unpause(ctx context.Context, caller string) error {
	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		return k.Ownable.Unpause(ctx, caller)
	})
}

func stakeKey(account string, role types.Role) collections.Pair[string, uint32] {
	return collections.Join(strings.TrimSpace(account), uint32(role))
}

func getInt[K any](ctx context.Context, m collections.Map[K, sdkmath.Int], key K) (sdkmath.Int, error) {
	v, err := m.Get(ctx, key)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

func getString(ctx context.Context, item collections.Item[string]) (string, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// StakeOf returns the balance of (account, role).
func (k Keeper) StakeOf(ctx context.Context, account string, role types.Role) (sdkmath.Int, error) {
	return getInt(ctx, k.Stakes, stakeKey(account, role))
}

// LockedStakeOf returns the locked part of (account, role).
func (k Keeper) LockedStakeOf(ctx context.Context, account string, role types.Role) (sdkmath.Int, error) {
	return getInt(ctx, k.Locks, stakeKey(account, role))
}

// TotalStake returns the sum of all balances of role.
func (k Keeper) TotalStake(ctx context.Context, role types.Role) (sdkmath.Int, error) {
	return getInt(ctx, k.TotalStakes, uint32(role))
}

func (k Keeper) MinStake(ctx context.Context) (sdkmath.Int, error) {
	v, err := k.MinStakeValue.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

func (k Keeper) RoleMinimum(ctx context.Context, role types.Role) (sdkmath.Int, error) {
	return getInt(ctx, k.RoleMinimums, uint32(role))
}

// RoleMinimumsOf returns the three role minimums together.
func (k Keeper) RoleMinimumsOf(ctx context.Context) (types.RoleMinimums, error) {
	var (
		m   types.RoleMinimums
		err error
	)
	if m.Agent, err = k.RoleMinimum(ctx, types.RoleAgent); err != nil {
		return m, err
	}
	if m.Validator, err = k.RoleMinimum(ctx, types.RoleValidator); err != nil {
		return m, err
	}
	m.Platform, err = k.RoleMinimum(ctx, types.RolePlatform)
	return m, err
}

// EffectiveMinimum is the larger of the global and the role minimum.
func (k Keeper) EffectiveMinimum(ctx context.Context, role types.Role) (sdkmath.Int, error) {
	global, err := k.MinStake(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	roleMin, err := k.RoleMinimum(ctx, role)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return sdkmath.MaxInt(global, roleMin), nil
}

func (k Keeper) SlashingPercentages(ctx context.Context) (types.SlashingSplit, error) {
	raw, err := k.SlashingSplit.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultSlashingSplit(), nil
	}
	if err != nil {
		return types.SlashingSplit{}, err
	}
	var split types.SlashingSplit
	if err := json.Unmarshal([]byte(raw), &split); err != nil {
		return types.SlashingSplit{}, fmt.Errorf("decode slashing split: %w", err)
	}
	return split, nil
}

func (k Keeper) setSlashingSplit(ctx context.Context, split types.SlashingSplit) error {
	raw, err := json.Marshal(split)
	if err != nil {
		return err
	}
	return k.SlashingSplit.Set(ctx, string(raw))
}

func (k Keeper) Treasury(ctx context.Context) (string, error) {
	return getString(ctx, k.TreasuryAddr)
}

func (k Keeper) IsTreasuryAllowlisted(ctx context.Context, addr string) (bool, error) {
	return k.TreasuryAllowlist.Has(ctx, strings.TrimSpace(addr))
}

func (k Keeper) JobRegistryAddress(ctx context.Context) (string, error) {
	return getString(ctx, k.JobRegistry)
}

func (k Keeper) DisputeModuleAddress(ctx context.Context) (string, error) {
	return getString(ctx, k.DisputeModule)
}

func (k Keeper) HamiltonianFeed(ctx context.Context) (string, error) {
	return getString(ctx, k.FeedAddr)
}

func (k Keeper) AutoStakeConfig(ctx context.Context) (types.AutoStakeConfig, error) {
	raw, err := k.AutoStake.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultAutoStakeConfig(), nil
	}
	if err != nil {
		return types.AutoStakeConfig{}, err
	}
	var cfg types.AutoStakeConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return types.AutoStakeConfig{}, fmt.Errorf("decode auto-stake config: %w", err)
	}
	return cfg.Normalize(), nil
}

func (k Keeper) setAutoStakeConfig(ctx context.Context, cfg types.AutoStakeConfig) error {
	raw, err := json.Marshal(cfg.Normalize())
	if err != nil {
		return err
	}
	return k.AutoStake.Set(ctx, string(raw))
}

// LastCheckpointTime returns the unix time of the last recorded checkpoint,
// zero when none was taken.
func (k Keeper) LastCheckpointTime(ctx context.Context) (int64, error) {
	v, err := k.LastCheckpoint.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

// HasAcknowledged reports whether account staked through
// AcknowledgeAndDeposit.
func (k Keeper) HasAcknowledged(ctx context.Context, account string) (bool, error) {
	return k.Acknowledged.Has(ctx, strings.TrimSpace(account))
}

// Custody returns the settlement token balance held by the ledger.
func (k Keeper) Custody(ctx context.Context) (sdkmath.Int, error) {
	return k.token.BalanceOf(ctx, k.address)
}
