package types

const (
	EventTypeFeeContributed      = "fee_contributed"
	EventTypeFeesDistributed     = "fees_distributed"
	EventTypeBurnPctUpdated      = "burn_pct_updated"
	EventTypeTreasuryUpdated     = "fee_treasury_updated"
	EventTypeTreasuryAllowlisted = "fee_treasury_allowlist_updated"
	EventTypeContributorUpdated  = "fee_contributor_updated"

	AttributeKeyContributor = "contributor"
	AttributeKeyAmount      = "amount"
	AttributeKeyPending     = "pending"
	AttributeKeyBurned      = "burned"
	AttributeKeyTreasury    = "treasury"
	AttributeKeyDistributed = "distributed"
	AttributeKeyBurnPct     = "burn_pct"
	AttributeKeyAddress     = "address"
	AttributeKeyAllowed     = "allowed"
)
