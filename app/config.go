package app

import (
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/caarlos0/env/v11"

	"github.com/sovereignlabor/kernel/internal/pct"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errorsmod.Register("kernel", 2, "invalid app config")

// Config holds the node-level settings of the kernel. Module parameters live
// in state and only change through governance; these values seed genesis.
type Config struct {
	ChainID     string `env:"KERNEL_CHAIN_ID"     envDefault:"sovereign-1"`
	Denom       string `env:"KERNEL_DENOM"        envDefault:"agialpha"`
	TokenMinter string `env:"KERNEL_TOKEN_MINTER" envDefault:"minter"`

	MinStake          string `env:"KERNEL_MIN_STAKE"           envDefault:"2500000000000000000000"`
	EmployerSlashPct  uint32 `env:"KERNEL_SLASH_EMPLOYER_PCT"  envDefault:"95"`
	TreasurySlashPct  uint32 `env:"KERNEL_SLASH_TREASURY_PCT"  envDefault:"5"`
	BurnPct           uint32 `env:"KERNEL_BURN_PCT"            envDefault:"1"`
	PolicyURI         string `env:"KERNEL_TAX_POLICY_URI"      envDefault:"ipfs://policy"`
	PolicyAckText     string `env:"KERNEL_TAX_POLICY_ACK"`
	AuditSinkPath     string `env:"KERNEL_AUDIT_SINK_PATH"`
	AuditSinkCache    int    `env:"KERNEL_AUDIT_SINK_CACHE"    envDefault:"4096"`
	InvariantsOnApply bool   `env:"KERNEL_INVARIANTS_ON_APPLY" envDefault:"true"`

	AutoStakeIncreasePct uint32        `env:"KERNEL_AUTOSTAKE_INCREASE_PCT" envDefault:"10"`
	AutoStakeDecreasePct uint32        `env:"KERNEL_AUTOSTAKE_DECREASE_PCT" envDefault:"10"`
	AutoStakeCooldown    time.Duration `env:"KERNEL_AUTOSTAKE_COOLDOWN"     envDefault:"24h"`
}

// ParseConfig loads Config from the process environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// ParseConfigFrom loads Config from vars instead of the process environment.
func ParseConfigFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// DefaultConfig returns the envDefault values.
func DefaultConfig() Config {
	cfg, err := ParseConfigFrom(map[string]string{})
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ChainID) == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "chain id cannot be empty")
	}
	if strings.TrimSpace(c.Denom) == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "denom cannot be empty")
	}
	if strings.TrimSpace(c.TokenMinter) == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "token minter cannot be empty")
	}
	if _, err := c.MinStakeAmount(); err != nil {
		return err
	}
	if c.EmployerSlashPct+c.TreasurySlashPct != pct.Hundred {
		return errorsmod.Wrapf(ErrInvalidConfig, "slashing split %d/%d must sum to %d",
			c.EmployerSlashPct, c.TreasurySlashPct, pct.Hundred)
	}
	if c.BurnPct > pct.Hundred {
		return errorsmod.Wrapf(ErrInvalidConfig, "burn pct %d exceeds %d", c.BurnPct, pct.Hundred)
	}
	if c.AutoStakeIncreasePct > pct.Hundred || c.AutoStakeDecreasePct > pct.Hundred {
		return errorsmod.Wrap(ErrInvalidConfig, "auto-stake step exceeds 100%")
	}
	if c.AutoStakeCooldown < 0 {
		return errorsmod.Wrap(ErrInvalidConfig, "auto-stake cooldown cannot be negative")
	}
	if c.AuditSinkCache < 0 {
		return errorsmod.Wrap(ErrInvalidConfig, "audit sink cache cannot be negative")
	}
	return nil
}

// MinStakeAmount parses MinStake as a positive integer amount.
func (c Config) MinStakeAmount() (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(strings.TrimSpace(c.MinStake))
	if !ok || !amount.IsPositive() {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrInvalidConfig, "min stake %q must be a positive integer", c.MinStake)
	}
	return amount, nil
}
