package types

import "github.com/sovereignlabor/kernel/internal/govcall"

// ContractRegistry resolves wired module addresses and call targets.
type ContractRegistry interface {
	Lookup(addr string) (any, bool)
	Callable(addr string) (govcall.Callable, error)
}
