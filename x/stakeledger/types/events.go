package types

const (
	EventTypeStakeDeposited         = "stake_deposited"
	EventTypeStakeWithdrawn         = "stake_withdrawn"
	EventTypeStakeSlashed           = "stake_slashed"
	EventTypeStakeLocked            = "stake_locked"
	EventTypeStakeUnlocked          = "stake_unlocked"
	EventTypeStakeAcknowledged      = "stake_acknowledged"
	EventTypeRoleMinimumsUpdated    = "role_minimums_updated"
	EventTypeMinStakeUpdated        = "min_stake_updated"
	EventTypeSlashingPctUpdated     = "slashing_percentages_updated"
	EventTypeTreasuryUpdated        = "treasury_updated"
	EventTypeTreasuryAllowlisted    = "treasury_allowlist_updated"
	EventTypeModuleUpdated          = "module_updated"
	EventTypeHamiltonianFeedUpdated = "hamiltonian_feed_updated"
	EventTypeAutoStakeConfigured    = "auto_stake_configured"
	EventTypeAutoStakeToggled       = "auto_stake_toggled"
	EventTypeStakeCheckpoint        = "stake_checkpoint"

	AttributeKeyAccount       = "account"
	AttributeKeyRole          = "role"
	AttributeKeyAmount        = "amount"
	AttributeKeyBalance       = "balance"
	AttributeKeyEmployer      = "employer"
	AttributeKeyEmployerShare = "employer_share"
	AttributeKeyTreasury      = "treasury"
	AttributeKeyTreasuryShare = "treasury_share"
	AttributeKeyAgentMin      = "agent_min"
	AttributeKeyValidatorMin  = "validator_min"
	AttributeKeyPlatformMin   = "platform_min"
	AttributeKeyMinStake      = "min_stake"
	AttributeKeyPrevious      = "previous"
	AttributeKeyEmployerPct   = "employer_pct"
	AttributeKeyTreasuryPct   = "treasury_pct"
	AttributeKeyAllowed       = "allowed"
	AttributeKeyModule        = "module"
	AttributeKeyAddress       = "address"
	AttributeKeyEnabled       = "enabled"
	AttributeKeySignal        = "signal"
	AttributeKeyApplied       = "applied"
	AttributeKeyTimestamp     = "timestamp"
)
