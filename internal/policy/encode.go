package policy

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Audit values are ABI encoded so existing log tooling can decode them.
var (
	uint256Type, _ = abi.NewType("uint256", "", nil)
	stringType, _  = abi.NewType("string", "", nil)
)

// EncodeUints ABI-encodes values as consecutive uint256 words.
func EncodeUints(values ...sdkmath.Int) ([]byte, error) {
	args := make(abi.Arguments, len(values))
	vals := make([]any, len(values))
	for i, v := range values {
		args[i] = abi.Argument{Type: uint256Type}
		if v.IsNil() {
			vals[i] = new(big.Int)
			continue
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("value %d: %s is negative", i, v)
		}
		vals[i] = v.BigInt()
	}
	return args.Pack(vals...)
}

// EncodeString ABI-encodes s as a single dynamic string.
func EncodeString(s string) ([]byte, error) {
	return abi.Arguments{{Type: stringType}}.Pack(s)
}

// DecodeUints reverses EncodeUints.
func DecodeUints(data []byte, n int) ([]sdkmath.Int, error) {
	args := make(abi.Arguments, n)
	for i := range args {
		args[i] = abi.Argument{Type: uint256Type}
	}
	vals, err := args.Unpack(data)
	if err != nil {
		return nil, err
	}
	out := make([]sdkmath.Int, len(vals))
	for i, v := range vals {
		out[i] = sdkmath.NewIntFromBigInt(v.(*big.Int))
	}
	return out, nil
}

func uintsOf(values ...uint32) []sdkmath.Int {
	out := make([]sdkmath.Int, len(values))
	for i, v := range values {
		out[i] = sdkmath.NewInt(int64(v))
	}
	return out
}
