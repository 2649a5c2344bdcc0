package govcall_test

import (
	"context"
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/govcall"
)

type setArgs struct {
	Value string `json:"value"`
}

type recorder struct {
	addr   string
	d      *govcall.Dispatcher
	caller string
	value  string
}

func newRecorder(addr string) *recorder {
	r := &recorder{addr: addr, d: govcall.NewDispatcher("recorder")}
	govcall.Handle(r.d, "setValue", func(_ context.Context, caller string, args setArgs) error {
		if args.Value == "boom" {
			return errors.New("boom")
		}
		r.caller, r.value = caller, args.Value
		return nil
	})
	return r
}

func (r *recorder) Address() string { return r.addr }

func (r *recorder) Call(ctx context.Context, caller string, payload []byte) error {
	return r.d.Dispatch(ctx, caller, payload)
}

func TestDispatchTypedHandler(t *testing.T) {
	r := newRecorder("rec")
	payload, err := govcall.Encode("setValue", setArgs{Value: "42"})
	require.NoError(t, err)

	require.NoError(t, r.Call(context.Background(), "lattice", payload))
	require.Equal(t, "lattice", r.caller)
	require.Equal(t, "42", r.value)
	require.Equal(t, []string{"setValue"}, r.d.Methods())
}

func TestDispatchRejectsBadPayloads(t *testing.T) {
	r := newRecorder("rec")
	ctx := context.Background()

	require.ErrorIs(t, r.Call(ctx, "x", nil), govcall.ErrMalformedPayload)
	require.ErrorIs(t, r.Call(ctx, "x", []byte("not-json")), govcall.ErrMalformedPayload)
	require.ErrorIs(t, r.Call(ctx, "x", []byte(`{"method":"setValue","args":[1]}`)), govcall.ErrMalformedPayload)
	require.ErrorIs(t, r.Call(ctx, "x", govcall.MustEncode("drain", nil)), govcall.ErrUnknownMethod)

	_, err := govcall.Encode(" ", nil)
	require.ErrorIs(t, err, govcall.ErrMalformedPayload)
}

func TestRegistryForward(t *testing.T) {
	reg := govcall.NewRegistry()
	r := newRecorder("rec")
	require.NoError(t, reg.RegisterCallable(r))
	require.ErrorIs(t, reg.RegisterCallable(r), govcall.ErrDuplicateTarget)
	require.NoError(t, reg.Register("feed", struct{}{}))

	ctx := context.Background()
	require.NoError(t, reg.Forward(ctx, "gov", "rec", govcall.MustEncode("setValue", setArgs{Value: "7"})))
	require.Equal(t, "7", r.value)

	err := reg.Forward(ctx, "gov", "rec", govcall.MustEncode("setValue", setArgs{Value: "boom"}))
	require.EqualError(t, err, "boom")

	require.ErrorIs(t, reg.Forward(ctx, "gov", "missing", nil), govcall.ErrUnknownTarget)
	require.ErrorIs(t, reg.Forward(ctx, "gov", "feed", nil), govcall.ErrNotCallable)
}

func TestCallErrorMatchesKindAndCause(t *testing.T) {
	require.NoError(t, govcall.WrapCallError(govcall.ErrNotCallable, "rec", nil))

	inner := errorsmod.Wrap(govcall.ErrUnknownMethod, "drain")
	err := govcall.WrapCallError(govcall.ErrNotCallable, "rec", inner)
	require.ErrorIs(t, err, govcall.ErrNotCallable)
	require.ErrorIs(t, err, govcall.ErrUnknownMethod)
	require.NotErrorIs(t, err, govcall.ErrUnknownTarget)

	outer := errorsmod.Wrap(err, "batch call 0")
	require.ErrorIs(t, outer, govcall.ErrNotCallable)
	require.ErrorIs(t, outer, govcall.ErrUnknownMethod)

	var callErr *govcall.CallError
	require.True(t, errors.As(outer, &callErr))
	require.Equal(t, "rec", callErr.Target)
	require.Equal(t, govcall.ErrNotCallable.ABCICode(), callErr.ABCICode())
	require.Contains(t, err.Error(), "rec: drain")
}
