package types

const (
	EventTypeParameterUpdated = "parameter_updated"
	EventTypeBatchApplied     = "configuration_batch_applied"

	AttributeKeySequence     = "sequence"
	AttributeKeyModuleKey    = "module_key"
	AttributeKeyParameterKey = "parameter_key"
	AttributeKeyTarget       = "target"
	AttributeKeyPayloadHash  = "payload_hash"
	AttributeKeyOldValue     = "old_value"
	AttributeKeyNewValue     = "new_value"
	AttributeKeyCaller       = "caller"
	AttributeKeyBlockHeight  = "block_height"
	AttributeKeyTimestamp    = "timestamp"
	AttributeKeyPreviousHash = "previous_hash"
	AttributeKeyRecordHash   = "record_hash"
	AttributeKeyCount        = "count"
	AttributeKeyFirst        = "first_sequence"
	AttributeKeyLast         = "last_sequence"
)
