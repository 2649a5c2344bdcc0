package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sovereignlabor/kernel/internal/policy"
)

func serveHealth(t *testing.T, h http.Handler, method string) (*httptest.ResponseRecorder, healthReport) {
	t.Helper()
	req := httptest.NewRequest(method, "/health/kernel", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var report healthReport
	if rec.Code == http.StatusOK || rec.Code == http.StatusInternalServerError {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	}
	return rec, report
}

func component(t *testing.T, report healthReport, name string) componentStatus {
	t.Helper()
	for _, c := range report.Components {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("component %s missing from report", name)
	return componentStatus{}
}

func TestHealthHandler_NilApp(t *testing.T) {
	rec, report := serveHealth(t, &KernelHealthHandler{app: nil}, http.MethodGet)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "unhealthy", report.Status)
}

func TestHealthHandler_RejectsNonGet(t *testing.T) {
	f := setupApp(t, false)
	rec, _ := serveHealth(t, f.app.HealthHandler(), http.MethodPost)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler_ReportsCommittedState(t *testing.T) {
	f := setupApp(t, true)

	_, err := f.app.ApplyPolicy(f.ctx, gov, policy.Manifest{
		Name:   "burn",
		Params: map[string]any{policy.ParamBurnBpsOfFee: 200},
	})
	require.NoError(t, err)
	f.nextBlock(t, 0)

	rec, report := serveHealth(t, f.app.HealthHandler(), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", report.Status, rec.Body.String())
	require.Equal(t, "sovereign-test-1", report.ChainID)
	require.Equal(t, int64(2), report.Height)

	require.True(t, component(t, report, "pause_lattice").Healthy)
	require.True(t, component(t, report, "audit_chain").Healthy)
	require.True(t, component(t, report, "invariants").Healthy)
	sink := component(t, report, "audit_sink")
	require.Equal(t, "healthy", sink.Status)
	require.NotNil(t, sink.Details)

	require.NoError(t, f.app.LatticeKeeper.PauseAll(f.ctx, guardian))
	f.nextBlock(t, 0)

	_, report = serveHealth(t, f.app.HealthHandler(), http.MethodGet)
	require.Equal(t, "unhealthy", report.Status)
	modules := component(t, report, "modules")
	require.False(t, modules.Healthy)
	require.Equal(t, "paused", modules.Status)
}

func TestHealthHandler_WithoutSinkOrModules(t *testing.T) {
	f := newFixture(t, testConfig(t, false))
	f.nextBlock(t, 0)

	_, report := serveHealth(t, f.app.HealthHandler(), http.MethodGet)
	require.Equal(t, "unhealthy", report.Status)
	require.False(t, component(t, report, "pause_lattice").Healthy)
	require.Equal(t, "disabled", component(t, report, "audit_sink").Status)
}

func TestBoolStatus(t *testing.T) {
	require.Equal(t, "healthy", boolStatus(true))
	require.Equal(t, "unhealthy", boolStatus(false))
}

func TestOverallStatus(t *testing.T) {
	require.Equal(t, "healthy", overallStatus([]componentStatus{{Healthy: true}, {Healthy: true}}))
	require.Equal(t, "unhealthy", overallStatus([]componentStatus{{Healthy: true}, {Healthy: false}}))
}
