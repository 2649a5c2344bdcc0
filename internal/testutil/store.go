// Package testutil builds in-memory multistores for keeper tests.
package testutil

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

// GenesisTime is the block time of contexts returned by NewContext.
var GenesisTime = time.Unix(1_770_100_000, 0).UTC()

// NewContext mounts keys on a fresh IAVL multistore and returns a context at
// height 100.
func NewContext(t *testing.T, keys ...*storetypes.KVStoreKey) sdk.Context {
	t.Helper()

	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "sovereign-test-1",
		Height:  100,
		Time:    GenesisTime,
	}
	return sdk.NewContext(cms, header, false, log.NewNopLogger())
}

// Advance returns ctx moved forward by d and one block.
func Advance(ctx sdk.Context, d time.Duration) sdk.Context {
	return ctx.WithBlockHeight(ctx.BlockHeight() + 1).WithBlockTime(ctx.BlockTime().Add(d))
}

// HasEvent reports whether ctx's event manager holds an event of typ.
func HasEvent(ctx sdk.Context, typ string) bool {
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

// CountEvents counts events of typ on ctx's event manager.
func CountEvents(ctx sdk.Context, typ string) int {
	n := 0
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// EventAttribute returns the value of key on the last event of typ.
func EventAttribute(ctx sdk.Context, typ, key string) (string, bool) {
	events := ctx.EventManager().Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != typ {
			continue
		}
		for _, attr := range events[i].Attributes {
			if attr.Key == key {
				return attr.Value, true
			}
		}
	}
	return "", false
}
