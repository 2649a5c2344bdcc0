package types

const (
	EventTypePolicyUpdated       = "tax_policy_updated"
	EventTypeAcknowledgerUpdated = "tax_acknowledger_updated"
	EventTypeAcknowledged        = "tax_policy_acknowledged"

	AttributeKeyURI             = "uri"
	AttributeKeyAcknowledgement = "acknowledgement"
	AttributeKeyVersion         = "version"
	AttributeKeyAcknowledger    = "acknowledger"
	AttributeKeyAllowed         = "allowed"
	AttributeKeyAccount         = "account"
)
