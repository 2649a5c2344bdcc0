package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ConfigurationCall is one forwarded parameter change. Payload goes to Target
// untouched; OldValue and NewValue are only recorded.
type ConfigurationCall struct {
	Target       string        `json:"target"`
	Payload      []byte        `json:"payload"`
	ModuleKey    common.Hash   `json:"module_key"`
	ParameterKey common.Hash   `json:"parameter_key"`
	OldValue     hexutil.Bytes `json:"old_value"`
	NewValue     hexutil.Bytes `json:"new_value"`
}

func (c ConfigurationCall) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return errorsmod.Wrap(ErrInvalidCall, "target cannot be empty")
	}
	if len(c.Payload) == 0 {
		return errorsmod.Wrap(ErrInvalidCall, "payload cannot be empty")
	}
	return nil
}

// AuditEntry is the stored and emitted record of one applied call. Entries
// form a SHA-256 hash chain starting at GenesisHash.
type AuditEntry struct {
	Sequence     uint64        `json:"sequence"`
	ModuleKey    common.Hash   `json:"module_key"`
	ParameterKey common.Hash   `json:"parameter_key"`
	Target       string        `json:"target"`
	PayloadHash  string        `json:"payload_hash"`
	OldValue     hexutil.Bytes `json:"old_value"`
	NewValue     hexutil.Bytes `json:"new_value"`
	Caller       string        `json:"caller"`
	BlockHeight  int64         `json:"block_height"`
	Timestamp    string        `json:"timestamp"`
	PreviousHash string        `json:"previous_hash"`
	RecordHash   string        `json:"record_hash"`
}

// PayloadDigest is the hex SHA-256 of a call payload.
func PayloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ComputeHash digests every field except RecordHash in a fixed order.
func (e AuditEntry) ComputeHash() string {
	canonical := fmt.Sprintf(
		"seq=%d|prev=%s|module=%s|param=%s|target=%s|payload=%s|old=%s|new=%s|caller=%s|height=%d|ts=%s",
		e.Sequence, e.PreviousHash, e.ModuleKey.Hex(), e.ParameterKey.Hex(), e.Target,
		e.PayloadHash, hexutil.Encode(e.OldValue), hexutil.Encode(e.NewValue),
		e.Caller, e.BlockHeight, e.Timestamp,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// VerifyChain checks that entries are consecutive, each links to the hash
// before it, and each hash matches its contents. prev is the hash preceding
// the first entry, GenesisHash for a full log.
func VerifyChain(prev string, entries []AuditEntry) error {
	for i, e := range entries {
		if i > 0 && e.Sequence != entries[i-1].Sequence+1 {
			return errorsmod.Wrapf(ErrBrokenChain, "sequence %d follows %d", e.Sequence, entries[i-1].Sequence)
		}
		if e.PreviousHash != prev {
			return errorsmod.Wrapf(ErrBrokenChain, "entry %d links to %s, want %s", e.Sequence, e.PreviousHash, prev)
		}
		if got := e.ComputeHash(); got != e.RecordHash {
			return errorsmod.Wrapf(ErrBrokenChain, "entry %d hash %s, recomputed %s", e.Sequence, e.RecordHash, got)
		}
		prev = e.RecordHash
	}
	return nil
}

// Event renders the entry as a parameter_updated event. Single calls and
// batch members produce the same shape.
func (e AuditEntry) Event() sdk.Event {
	return sdk.NewEvent(
		EventTypeParameterUpdated,
		sdk.NewAttribute(AttributeKeySequence, strconv.FormatUint(e.Sequence, 10)),
		sdk.NewAttribute(AttributeKeyModuleKey, e.ModuleKey.Hex()),
		sdk.NewAttribute(AttributeKeyParameterKey, e.ParameterKey.Hex()),
		sdk.NewAttribute(AttributeKeyTarget, e.Target),
		sdk.NewAttribute(AttributeKeyPayloadHash, e.PayloadHash),
		sdk.NewAttribute(AttributeKeyOldValue, hexutil.Encode(e.OldValue)),
		sdk.NewAttribute(AttributeKeyNewValue, hexutil.Encode(e.NewValue)),
		sdk.NewAttribute(AttributeKeyCaller, e.Caller),
		sdk.NewAttribute(AttributeKeyBlockHeight, strconv.FormatInt(e.BlockHeight, 10)),
		sdk.NewAttribute(AttributeKeyTimestamp, e.Timestamp),
		sdk.NewAttribute(AttributeKeyPreviousHash, e.PreviousHash),
		sdk.NewAttribute(AttributeKeyRecordHash, e.RecordHash),
	)
}

// EntryFromEvent parses a parameter_updated event back into an entry.
func EntryFromEvent(ev sdk.Event) (AuditEntry, error) {
	var e AuditEntry
	if ev.Type != EventTypeParameterUpdated {
		return e, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	attrs := make(map[string]string, len(ev.Attributes))
	for _, a := range ev.Attributes {
		attrs[a.Key] = a.Value
	}
	var err error
	if e.Sequence, err = strconv.ParseUint(attrs[AttributeKeySequence], 10, 64); err != nil {
		return e, fmt.Errorf("sequence: %w", err)
	}
	if e.BlockHeight, err = strconv.ParseInt(attrs[AttributeKeyBlockHeight], 10, 64); err != nil {
		return e, fmt.Errorf("block height: %w", err)
	}
	if e.OldValue, err = hexutil.Decode(attrs[AttributeKeyOldValue]); err != nil {
		return e, fmt.Errorf("old value: %w", err)
	}
	if e.NewValue, err = hexutil.Decode(attrs[AttributeKeyNewValue]); err != nil {
		return e, fmt.Errorf("new value: %w", err)
	}
	e.ModuleKey = common.HexToHash(attrs[AttributeKeyModuleKey])
	e.ParameterKey = common.HexToHash(attrs[AttributeKeyParameterKey])
	e.Target = attrs[AttributeKeyTarget]
	e.PayloadHash = attrs[AttributeKeyPayloadHash]
	e.Caller = attrs[AttributeKeyCaller]
	e.Timestamp = attrs[AttributeKeyTimestamp]
	e.PreviousHash = attrs[AttributeKeyPreviousHash]
	e.RecordHash = attrs[AttributeKeyRecordHash]
	return e, nil
}
