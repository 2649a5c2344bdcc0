package types

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// ModuleName is the configuration batcher namespace.
	ModuleName = "configurator"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// GenesisHash seeds the audit hash chain.
	GenesisHash = "genesis"
)

var (
	AuditEntriesKey = []byte{0x01}
	SequenceKey     = []byte{0x02}
	LastHashKey     = []byte{0x03}

	OwnableKeyBase byte = 0xF0
)

// ModuleKey identifies a module in audit records as keccak256(name), the
// same derivation operator tooling uses.
func ModuleKey(name string) common.Hash {
	return ethcrypto.Keccak256Hash([]byte(name))
}

// ParameterKey identifies a parameter in audit records as keccak256(name).
func ParameterKey(name string) common.Hash {
	return ethcrypto.Keccak256Hash([]byte(name))
}

var (
	ModuleStakeManager = ModuleKey("STAKE_MANAGER")
	ModuleFeePool      = ModuleKey("FEE_POOL")
	ModuleTaxPolicy    = ModuleKey("TAX_POLICY")
	ModuleSystemPause  = ModuleKey("SYSTEM_PAUSE")
	ModuleJobRegistry  = ModuleKey("JOB_REGISTRY")
	ModuleValidation   = ModuleKey("VALIDATION_MODULE")

	ParamStakeMinStake     = ParameterKey("STAKE_MIN_STAKE")
	ParamStakeRoleMinimums = ParameterKey("STAKE_ROLE_MINIMUMS")
	ParamStakeSlashing     = ParameterKey("STAKE_SLASHING")
	ParamStakeTreasury     = ParameterKey("STAKE_TREASURY")
	ParamStakeAutoTune     = ParameterKey("STAKE_AUTO_TUNE")
	ParamFeePoolBurnPct    = ParameterKey("FEEPOOL_BURN_PCT")
	ParamFeePoolTreasury   = ParameterKey("FEEPOOL_TREASURY")
	ParamTaxPolicyURI      = ParameterKey("TAX_POLICY_URI")
	ParamGlobalPauser      = ParameterKey("GLOBAL_PAUSER")
)
