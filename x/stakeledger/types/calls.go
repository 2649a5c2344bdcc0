package types

import sdkmath "cosmossdk.io/math"

// Methods accepted by the stake ledger call router.
const (
	MethodSetRoleMinimums        = "setRoleMinimums"
	MethodSetMinStake            = "setMinStake"
	MethodSetSlashingPercentages = "setSlashingPercentages"
	MethodConfigureAutoStake     = "configureAutoStake"
	MethodAutoTuneStakes         = "autoTuneStakes"
	MethodSetHamiltonianFeed     = "setHamiltonianFeed"
	MethodSetTreasury            = "setTreasury"
	MethodSetTreasuryAllowlist   = "setTreasuryAllowlist"
	MethodSetJobRegistry         = "setJobRegistry"
	MethodSetDisputeModule       = "setDisputeModule"
	MethodSetModules             = "setModules"
	MethodTransferOwnership      = "transferOwnership"
	MethodSetPauser              = "setPauser"
	MethodPause                  = "pause"
	MethodUnpause                = "unpause"
)

type SetRoleMinimumsArgs struct {
	Agent     sdkmath.Int `json:"agent"`
	Validator sdkmath.Int `json:"validator"`
	Platform  sdkmath.Int `json:"platform"`
}

type SetMinStakeArgs struct {
	Amount sdkmath.Int `json:"amount"`
}

type SetSlashingPercentagesArgs struct {
	EmployerPct uint32 `json:"employer_pct"`
	TreasuryPct uint32 `json:"treasury_pct"`
}

type AutoTuneStakesArgs struct {
	Enabled bool `json:"enabled"`
}

type AddressArgs struct {
	Address string `json:"address"`
}

type AllowlistArgs struct {
	Address string `json:"address"`
	Allowed bool   `json:"allowed"`
}

type SetModulesArgs struct {
	JobRegistry   string `json:"job_registry"`
	DisputeModule string `json:"dispute_module"`
}
