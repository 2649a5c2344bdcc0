package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
)

// Role is a participant category with its own stake minimum.
type Role uint32

const (
	RoleAgent Role = iota
	RoleValidator
	RolePlatform
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleAgent, RoleValidator, RolePlatform}

func (r Role) String() string {
	switch r {
	case RoleAgent:
		return "agent"
	case RoleValidator:
		return "validator"
	case RolePlatform:
		return "platform"
	default:
		return fmt.Sprintf("role(%d)", uint32(r))
	}
}

func (r Role) Validate() error {
	if r > RolePlatform {
		return errorsmod.Wrapf(ErrInvalidRole, "%d", uint32(r))
	}
	return nil
}

// ParseRole accepts a role name or its numeric form.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent", "0":
		return RoleAgent, nil
	case "validator", "1":
		return RoleValidator, nil
	case "platform", "2":
		return RolePlatform, nil
	}
	return 0, errorsmod.Wrapf(ErrInvalidRole, "%q", s)
}
