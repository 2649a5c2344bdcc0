package app

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/govcall"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	taxtypes "github.com/sovereignlabor/kernel/x/taxpolicy/types"
)

const (
	EventTypeBootstrapped  = "kernel_bootstrapped"
	AttributeKeyGovernance = "governance"
	AttributeKeyGuardian   = "guardian"
)

// BootstrapConfig names the parties of a fresh deployment. Deployer must own
// every module at genesis.
type BootstrapConfig struct {
	Deployer   string
	Governance string
	Guardian   string

	StakeTreasury   string
	FeePoolTreasury string
	Contributors    []string

	// JobRegistry and DisputeModule are wired only when both are set.
	JobRegistry   string
	DisputeModule string
	// HamiltonianFeed must already be registered in the app registry.
	HamiltonianFeed string
}

func (c BootstrapConfig) Validate() error {
	if strings.TrimSpace(c.Deployer) == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "deployer cannot be empty")
	}
	if strings.TrimSpace(c.Governance) == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "governance cannot be empty")
	}
	if (c.JobRegistry == "") != (c.DisputeModule == "") {
		return errorsmod.Wrap(ErrInvalidConfig, "job registry and dispute module must be set together")
	}
	return nil
}

// Bootstrap performs the deployment handoff in one atomic step: it wires the
// ledger to the tax policy, allowlists the treasuries, moves every module
// under the lattice, propagates the guardian as pauser and finally hands the
// lattice to the configurator. Governance must accept configurator
// ownership afterwards unless it is the deployer.
func (app *KernelApp) Bootstrap(ctx sdk.Context, cfg BootstrapConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	deployer := cfg.Deployer
	lattice := app.LatticeKeeper
	ledger := app.StakeLedgerKeeper
	pool := app.FeePoolKeeper
	tax := app.TaxPolicyKeeper

	return sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		step := func(name string, err error) error {
			if err != nil {
				app.logger.Warn("bootstrap aborted", "step", name, "err", err.Error())
				return fmt.Errorf("bootstrap %s: %w", name, err)
			}
			return nil
		}

		if err := step("acknowledger", tax.SetAcknowledger(ctx, deployer, ledger.Address(), true)); err != nil {
			return err
		}
		if cfg.JobRegistry != "" {
			if err := step("ledger modules", ledger.SetModules(ctx, deployer, cfg.JobRegistry, cfg.DisputeModule)); err != nil {
				return err
			}
		}
		if cfg.HamiltonianFeed != "" {
			if err := step("hamiltonian feed", ledger.SetHamiltonianFeed(ctx, deployer, cfg.HamiltonianFeed)); err != nil {
				return err
			}
		}
		if cfg.StakeTreasury != "" {
			if err := step("ledger treasury allowlist", ledger.SetTreasuryAllowlist(ctx, deployer, cfg.StakeTreasury, true)); err != nil {
				return err
			}
			if err := step("ledger treasury", ledger.SetTreasury(ctx, deployer, cfg.StakeTreasury)); err != nil {
				return err
			}
		}
		if cfg.FeePoolTreasury != "" {
			if err := step("fee pool treasury allowlist", pool.SetTreasuryAllowlist(ctx, deployer, cfg.FeePoolTreasury, true)); err != nil {
				return err
			}
			if err := step("fee pool treasury", pool.SetTreasury(ctx, deployer, cfg.FeePoolTreasury)); err != nil {
				return err
			}
		}
		for _, c := range cfg.Contributors {
			if err := step("contributor "+c, pool.SetContributor(ctx, deployer, c, true)); err != nil {
				return err
			}
		}

		if err := step("ledger ownership", ledger.TransferOwnership(ctx, deployer, lattice.Address())); err != nil {
			return err
		}
		if err := step("fee pool ownership", pool.TransferOwnership(ctx, deployer, lattice.Address())); err != nil {
			return err
		}
		if err := step("tax policy ownership", tax.TransferOwnership(ctx, deployer, lattice.Address())); err != nil {
			return err
		}
		accept := govcall.MustEncode(taxtypes.MethodAcceptOwnership, nil)
		if err := step("tax policy accept", lattice.ExecuteGovernanceCall(ctx, deployer, tax.Address(), accept)); err != nil {
			return err
		}

		modules := []string{ledger.Address(), pool.Address(), tax.Address()}
		if err := step("lattice modules", lattice.SetModules(ctx, deployer, modules)); err != nil {
			return err
		}
		if cfg.Guardian != "" {
			if err := step("global pauser", lattice.SetGlobalPauser(ctx, deployer, cfg.Guardian)); err != nil {
				return err
			}
		}

		configurator := app.ConfiguratorKeeper
		if err := step("lattice ownership", lattice.TransferOwnership(ctx, deployer, configurator.Address())); err != nil {
			return err
		}
		if cfg.Governance != deployer {
			if err := step("configurator ownership", configurator.TransferOwnership(ctx, deployer, cfg.Governance)); err != nil {
				return err
			}
		}

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			EventTypeBootstrapped,
			sdk.NewAttribute(AttributeKeyGovernance, cfg.Governance),
			sdk.NewAttribute(AttributeKeyGuardian, cfg.Guardian),
		))
		app.logger.Info("kernel bootstrapped", "governance", cfg.Governance, "guardian", cfg.Guardian, "modules", len(modules))
		return nil
	})
}
