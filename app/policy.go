package app

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sovereignlabor/kernel/internal/policy"
	"github.com/sovereignlabor/kernel/internal/sdkctx"
	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
)

// PolicyTargets returns the module addresses policy plans route to.
func (app *KernelApp) PolicyTargets() policy.Targets {
	return policy.Targets{
		Lattice:     app.LatticeKeeper.Address(),
		StakeLedger: app.StakeLedgerKeeper.Address(),
		FeePool:     app.FeePoolKeeper.Address(),
		TaxPolicy:   app.TaxPolicyKeeper.Address(),
	}
}

// PolicySnapshot reads the current value of every manifest parameter.
func (app *KernelApp) PolicySnapshot(ctx sdk.Context) (policy.Snapshot, error) {
	var (
		snap policy.Snapshot
		err  error
	)
	ledger := app.StakeLedgerKeeper
	if snap.MinStake, err = ledger.MinStake(ctx); err != nil {
		return snap, err
	}
	if snap.RoleMinimums, err = ledger.RoleMinimumsOf(ctx); err != nil {
		return snap, err
	}
	if snap.Slashing, err = ledger.SlashingPercentages(ctx); err != nil {
		return snap, err
	}
	if snap.StakeTreasury, err = ledger.Treasury(ctx); err != nil {
		return snap, err
	}
	if snap.BurnPct, err = app.FeePoolKeeper.BurnPct(ctx); err != nil {
		return snap, err
	}
	if snap.FeePoolTreasury, err = app.FeePoolKeeper.Treasury(ctx); err != nil {
		return snap, err
	}
	if snap.PolicyURI, _, err = app.TaxPolicyKeeper.Policy(ctx); err != nil {
		return snap, err
	}
	if snap.GlobalPauser, err = app.LatticeKeeper.ActivePauser(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// PlanPolicy diffs m against the current state.
func (app *KernelApp) PlanPolicy(ctx sdk.Context, m policy.Manifest) (policy.Plan, error) {
	snap, err := app.PolicySnapshot(ctx)
	if err != nil {
		return policy.Plan{}, err
	}
	return policy.NewPlanner(app.PolicyTargets(), policy.WithLogger(app.logger)).Plan(m, snap)
}

// PolicyResult is the outcome of ApplyPolicy.
type PolicyResult struct {
	Plan     policy.Plan
	Entries  []configtypes.AuditEntry
	Ingested int
	Summary  string
}

// ApplyPolicy plans m and submits the plan as one configuration batch on
// behalf of caller. When invariant checks are enabled a broken invariant
// reverts the batch. Applied entries are then handed to the audit sink; a
// sink failure is returned with the result, the on-chain batch stands.
func (app *KernelApp) ApplyPolicy(ctx sdk.Context, caller string, m policy.Manifest) (PolicyResult, error) {
	plan, err := app.PlanPolicy(ctx, m)
	if err != nil {
		return PolicyResult{}, err
	}
	result := PolicyResult{Plan: plan}
	if plan.Empty() {
		result.Summary = plan.Summary(nil)
		return result, nil
	}

	err = sdkctx.RunAtomic(ctx, func(ctx sdk.Context) error {
		entries, err := app.ConfiguratorKeeper.ConfigureBatch(ctx, caller, plan.Calls())
		if err != nil {
			return err
		}
		if app.cfg.InvariantsOnApply {
			if err := app.invariants.AssertInvariants(ctx); err != nil {
				return fmt.Errorf("policy %s breaks invariants: %w", plan.ID, err)
			}
		}
		result.Entries = entries
		return nil
	})
	if err != nil {
		app.logger.Warn("policy rejected", "plan", plan.ID, "name", plan.Name, "err", err.Error())
		return PolicyResult{Plan: plan}, err
	}
	result.Summary = plan.Summary(result.Entries)
	app.logger.Info("policy applied", "plan", plan.ID, "name", plan.Name, "entries", len(result.Entries))

	if app.auditSink != nil {
		n, err := app.auditSink.IngestEvents(ctx, ctx.EventManager().ABCIEvents())
		result.Ingested = n
		if err != nil {
			return result, fmt.Errorf("audit sink: %w", err)
		}
	}
	return result, nil
}
