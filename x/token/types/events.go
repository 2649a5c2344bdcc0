package types

const (
	EventTypeTransfer = "token_transfer"
	EventTypeApproval = "token_approval"
	EventTypeMint     = "token_mint"
	EventTypeBurn     = "token_burn"

	AttributeKeyFrom    = "from"
	AttributeKeyTo      = "to"
	AttributeKeyOwner   = "owner"
	AttributeKeySpender = "spender"
	AttributeKeyAmount  = "amount"
)
