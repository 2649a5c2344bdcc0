// Package policy turns a governance policy manifest and a snapshot of the
// current module parameters into an ordered configuration batch.
//
// Every planned call is routed through the pause lattice, the sole owner of
// the wired modules, so the batch can be handed straight to the configuration
// batcher.
package policy

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const codespace = "policy"

var (
	ErrInvalidManifest = errorsmod.Register(codespace, 2, "invalid policy manifest")
	ErrGuardRejected   = errorsmod.Register(codespace, 3, "policy guard rejected the snapshot")
	ErrInvalidGuard    = errorsmod.Register(codespace, 4, "invalid policy guard")
)

// Manifest parameter names. Amounts are in base token units.
const (
	ParamMinStake          = "minStakeWei"
	ParamAgentMinStake     = "agentMinStakeWei"
	ParamValidatorMinStake = "validatorMinStakeWei"
	ParamPlatformMinStake  = "platformMinStakeWei"
	ParamSlashBps          = "slashBps"
	ParamBurnBpsOfFee      = "burnBpsOfFee"
	ParamStakeTreasury     = "treasury"
	ParamFeePoolTreasury   = "feePoolTreasury"
	ParamTaxPolicyURI      = "taxPolicyURI"
	ParamGlobalPauser      = "globalPauser"
)

var knownParams = map[string]struct{}{
	ParamMinStake:          {},
	ParamAgentMinStake:     {},
	ParamValidatorMinStake: {},
	ParamPlatformMinStake:  {},
	ParamSlashBps:          {},
	ParamBurnBpsOfFee:      {},
	ParamStakeTreasury:     {},
	ParamFeePoolTreasury:   {},
	ParamTaxPolicyURI:      {},
	ParamGlobalPauser:      {},
}

// Manifest is the desired policy. JSON manifests parse as YAML.
type Manifest struct {
	Name   string         `yaml:"name"`
	Guard  string         `yaml:"guard"`
	Params map[string]any `yaml:"params"`
}

// ParseManifest decodes a manifest from YAML or JSON bytes.
func ParseManifest(data []byte) (Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Manifest{}, errorsmod.Wrap(ErrInvalidManifest, "manifest is empty")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errorsmod.Wrapf(ErrInvalidManifest, "decode: %s", err)
	}
	if m.Params == nil {
		m.Params = map[string]any{}
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("policy: read %s: %w", path, err)
	}
	m, err := ParseManifest(content)
	if err != nil {
		return Manifest{}, fmt.Errorf("policy: %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = path
	}
	return m, nil
}

// Unknown lists manifest parameters the planner does not handle, sorted.
func (m Manifest) Unknown() []string {
	var out []string
	for key := range m.Params {
		if _, ok := knownParams[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func (m Manifest) has(key string) bool {
	v, ok := m.Params[key]
	return ok && v != nil
}

// amount reads an integer parameter. Strings may be decimal or 0x-prefixed
// hex; large values must be quoted so YAML does not turn them into floats.
func (m Manifest) amount(key string) (sdkmath.Int, bool, error) {
	if !m.has(key) {
		return sdkmath.Int{}, false, nil
	}
	raw := m.Params[key]
	if f, ok := raw.(float64); ok && f != float64(int64(f)) {
		return sdkmath.Int{}, false, errorsmod.Wrapf(ErrInvalidManifest, "%s must be an integer, got %v", key, raw)
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return sdkmath.Int{}, false, errorsmod.Wrapf(ErrInvalidManifest, "%s: %s", key, err)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return sdkmath.Int{}, false, errorsmod.Wrapf(ErrInvalidManifest, "%s must be an integer, got %q", key, s)
	}
	if v.Sign() < 0 {
		return sdkmath.Int{}, false, errorsmod.Wrapf(ErrInvalidManifest, "%s must be non-negative", key)
	}
	return sdkmath.NewIntFromBigInt(v), true, nil
}

func (m Manifest) uint32(key string) (uint32, bool, error) {
	if !m.has(key) {
		return 0, false, nil
	}
	v, err := cast.ToInt64E(m.Params[key])
	if err != nil {
		return 0, false, errorsmod.Wrapf(ErrInvalidManifest, "%s: %s", key, err)
	}
	if v < 0 || v > int64(^uint32(0)) {
		return 0, false, errorsmod.Wrapf(ErrInvalidManifest, "%s %d out of range", key, v)
	}
	return uint32(v), true, nil
}

func (m Manifest) address(key string) (string, bool, error) {
	if !m.has(key) {
		return "", false, nil
	}
	s, err := cast.ToStringE(m.Params[key])
	if err != nil {
		return "", false, errorsmod.Wrapf(ErrInvalidManifest, "%s: %s", key, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false, errorsmod.Wrapf(ErrInvalidManifest, "%s cannot be empty", key)
	}
	return s, true, nil
}
