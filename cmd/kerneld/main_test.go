package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/app"
)

func newKernel(t *testing.T, withSink bool) *app.KernelApp {
	t.Helper()
	vars := map[string]string{"KERNEL_MIN_STAKE": "1000"}
	if withSink {
		vars["KERNEL_AUDIT_SINK_PATH"] = filepath.Join(t.TempDir(), "audit.db")
	}
	cfg, err := app.ParseConfigFrom(vars)
	require.NoError(t, err)
	kernel, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kernel.Close() })

	ctx := kernel.NewContext(time.Unix(1_770_100_000, 0))
	gs, err := kernel.DefaultGenesis("deployer")
	require.NoError(t, err)
	require.NoError(t, kernel.InitGenesis(ctx, gs))
	kernel.Commit()
	return kernel
}

func TestPlanHandler(t *testing.T) {
	h := planHandler(newKernel(t, false))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/policy/plan", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/policy/plan", strings.NewReader("name: raise\nparams:\n  minStakeWei: 2000\n")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "# Governance plan: raise")
	require.Contains(t, rec.Body.String(), "1000 → 2000")

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/policy/plan", strings.NewReader("params: [")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/policy/plan", strings.NewReader("guard: minStake > 5000\n")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuditHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	auditHandler(newKernel(t, false))(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	auditHandler(newKernel(t, true))(rec, httptest.NewRequest(http.MethodGet, "/audit?from=1&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
