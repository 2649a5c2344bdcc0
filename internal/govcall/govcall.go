// Package govcall implements the opaque call payloads routed through the pause
// lattice and the configuration batcher.
//
// A payload is a JSON envelope naming a method and carrying its arguments.
// Forwarders (the lattice, the batcher) treat payloads as bytes; only the
// target module's Dispatcher decodes them.
package govcall

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
)

const codespace = "govcall"

var (
	ErrMalformedPayload = errorsmod.Register(codespace, 2, "malformed call payload")
	ErrUnknownMethod    = errorsmod.Register(codespace, 3, "unknown method")
	ErrUnknownTarget    = errorsmod.Register(codespace, 4, "unknown call target")
	ErrNotCallable      = errorsmod.Register(codespace, 5, "target does not accept calls")
	ErrDuplicateTarget  = errorsmod.Register(codespace, 6, "target already registered")
)

// Payload is the envelope carried by every forwarded call.
type Payload struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Encode builds a payload for method. A nil args value produces a payload
// without arguments.
func Encode(method string, args any) ([]byte, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, errorsmod.Wrap(ErrMalformedPayload, "method cannot be empty")
	}
	p := Payload{Method: method}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, errorsmod.Wrapf(ErrMalformedPayload, "encode %s args: %s", method, err)
		}
		p.Args = raw
	}
	return json.Marshal(p)
}

// MustEncode is Encode for statically known arguments.
func MustEncode(method string, args any) []byte {
	bz, err := Encode(method, args)
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode parses a payload envelope.
func Decode(payload []byte) (Payload, error) {
	var p Payload
	if len(payload) == 0 {
		return p, errorsmod.Wrap(ErrMalformedPayload, "empty payload")
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, errorsmod.Wrapf(ErrMalformedPayload, "decode envelope: %s", err)
	}
	if strings.TrimSpace(p.Method) == "" {
		return p, errorsmod.Wrap(ErrMalformedPayload, "method cannot be empty")
	}
	return p, nil
}

// Callable is anything that accepts forwarded calls.
type Callable interface {
	Address() string
	Call(ctx context.Context, caller string, payload []byte) error
}

// HandlerFunc handles a decoded call.
type HandlerFunc func(ctx context.Context, caller string, args json.RawMessage) error

// Dispatcher maps method names to handlers for one module.
type Dispatcher struct {
	module   string
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher for module.
func NewDispatcher(module string) *Dispatcher {
	return &Dispatcher{module: module, handlers: make(map[string]HandlerFunc)}
}

// Register adds a raw handler. Registering a method twice panics.
func (d *Dispatcher) Register(method string, h HandlerFunc) {
	if _, exists := d.handlers[method]; exists {
		panic("govcall: duplicate handler for " + d.module + "." + method)
	}
	d.handlers[method] = h
}

// Handle registers a typed handler whose arguments are decoded into T.
func Handle[T any](d *Dispatcher, method string, fn func(ctx context.Context, caller string, args T) error) {
	d.Register(method, func(ctx context.Context, caller string, raw json.RawMessage) error {
		var args T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return errorsmod.Wrapf(ErrMalformedPayload, "%s.%s args: %s", d.module, method, err)
			}
		}
		return fn(ctx, caller, args)
	})
}

// HandleNoArgs registers a handler for a method without arguments.
func HandleNoArgs(d *Dispatcher, method string, fn func(ctx context.Context, caller string) error) {
	d.Register(method, func(ctx context.Context, caller string, _ json.RawMessage) error {
		return fn(ctx, caller)
	})
}

// Dispatch decodes payload and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, caller string, payload []byte) error {
	p, err := Decode(payload)
	if err != nil {
		return err
	}
	h, ok := d.handlers[p.Method]
	if !ok {
		return errorsmod.Wrapf(ErrUnknownMethod, "%s has no method %q", d.module, p.Method)
	}
	return h(ctx, caller, p.Args)
}

// Methods lists the registered method names in sorted order.
func (d *Dispatcher) Methods() []string {
	out := make([]string, 0, len(d.handlers))
	for m := range d.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Registry is the address book used to resolve call targets, feeds and
// module hooks. Entries are registered once while the app is wired.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]any)}
}

// Register records contract under addr.
func (r *Registry) Register(addr string, contract any) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errorsmod.Wrap(ErrUnknownTarget, "address cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.contracts[addr]; exists {
		return errorsmod.Wrapf(ErrDuplicateTarget, "%s", addr)
	}
	r.contracts[addr] = contract
	return nil
}

// RegisterCallable records c under its own address.
func (r *Registry) RegisterCallable(c Callable) error {
	return r.Register(c.Address(), c)
}

// Lookup returns the contract registered under addr.
func (r *Registry) Lookup(addr string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[strings.TrimSpace(addr)]
	return c, ok
}

// Callable resolves addr to a Callable.
func (r *Registry) Callable(addr string) (Callable, error) {
	c, ok := r.Lookup(addr)
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownTarget, "%s", addr)
	}
	callable, ok := c.(Callable)
	if !ok {
		return nil, errorsmod.Wrapf(ErrNotCallable, "%s", addr)
	}
	return callable, nil
}

// Forward resolves target and invokes it on behalf of caller.
func (r *Registry) Forward(ctx context.Context, caller, target string, payload []byte) error {
	c, err := r.Callable(target)
	if err != nil {
		return err
	}
	return c.Call(ctx, caller, payload)
}

// CallError reports a failed forwarded call. errors.Is matches both Kind and
// the inner error, so callers can branch on either.
type CallError struct {
	Kind   *errorsmod.Error
	Target string
	Err    error
}

// WrapCallError returns nil when err is nil.
func WrapCallError(kind *errorsmod.Error, target string, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{Kind: kind, Target: target, Err: err}
}

func (e *CallError) Error() string {
	return e.Kind.Error() + ": " + e.Target + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool { return errors.Is(e.Kind, target) }

// Codespace and ABCICode report the outer kind to ABCI.
func (e *CallError) Codespace() string { return e.Kind.Codespace() }

func (e *CallError) ABCICode() uint32 { return e.Kind.ABCICode() }
