package app

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler returns an HTTP handler for component-level health.
func (app *KernelApp) HealthHandler() http.Handler {
	return &KernelHealthHandler{app: app}
}

// KernelHealthHandler serves component-level health status.
type KernelHealthHandler struct {
	app *KernelApp
}

type healthReport struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	ChainID    string            `json:"chain_id,omitempty"`
	Height     int64             `json:"height"`
	Components []componentStatus `json:"components"`
}

type componentStatus struct {
	Name    string      `json:"name"`
	Healthy bool        `json:"healthy"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type latticeDetails struct {
	Owner        string   `json:"owner"`
	ActivePauser string   `json:"active_pauser"`
	Modules      []string `json:"modules"`
}

type auditDetails struct {
	LastHash     string `json:"last_hash"`
	HeadSequence uint64 `json:"head_sequence,omitempty"`
}

func (h *KernelHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if h.app == nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(healthReport{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Components: []componentStatus{
				{
					Name:    "app",
					Healthy: false,
					Status:  "unhealthy",
					Message: "app not initialized",
				},
			},
		})
		return
	}

	ctx := h.app.QueryContext()
	components := make([]componentStatus, 0, 5)

	// Pause lattice wiring
	lattice := h.app.LatticeKeeper
	owner, err := lattice.Owner(ctx)
	if err != nil {
		components = append(components, failed("pause_lattice", err))
	} else {
		pauser, _ := lattice.ActivePauser(ctx)
		modules, _ := lattice.WiredModules(ctx)
		healthy := len(modules) > 0
		c := componentStatus{
			Name:    "pause_lattice",
			Healthy: healthy,
			Status:  boolStatus(healthy),
			Details: latticeDetails{Owner: owner, ActivePauser: pauser, Modules: modules},
		}
		if !healthy {
			c.Message = "no modules wired"
		}
		components = append(components, c)
	}

	// Wired module pause flags
	if statuses, err := lattice.ModuleStatuses(ctx); err != nil {
		components = append(components, failed("modules", err))
	} else {
		paused := 0
		for _, s := range statuses {
			if s.Paused {
				paused++
			}
		}
		c := componentStatus{
			Name:    "modules",
			Healthy: paused == 0,
			Status:  boolStatus(paused == 0),
			Details: statuses,
		}
		if paused > 0 {
			c.Status = "paused"
			c.Message = "one or more modules are paused"
		}
		components = append(components, c)
	}

	// Configuration audit chain
	if err := h.app.ConfiguratorKeeper.VerifyAuditChain(ctx); err != nil {
		components = append(components, failed("audit_chain", err))
	} else {
		last, _ := h.app.ConfiguratorKeeper.LastRecordHash(ctx)
		components = append(components, componentStatus{
			Name:    "audit_chain",
			Healthy: true,
			Status:  "healthy",
			Details: auditDetails{LastHash: last},
		})
	}

	// Invariants
	broken := h.app.invariants.Check(ctx)
	invariants := componentStatus{
		Name:    "invariants",
		Healthy: len(broken) == 0,
		Status:  boolStatus(len(broken) == 0),
	}
	if len(broken) > 0 {
		invariants.Details = broken
	}
	components = append(components, invariants)

	// Off-chain audit sink
	components = append(components, h.sinkStatus(r))

	report := healthReport{
		Status:     overallStatus(components),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		ChainID:    h.app.cfg.ChainID,
		Height:     h.app.LastBlockHeight(),
		Components: components,
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}

func (h *KernelHealthHandler) sinkStatus(r *http.Request) componentStatus {
	sink := h.app.auditSink
	if sink == nil {
		return componentStatus{
			Name:    "audit_sink",
			Healthy: true,
			Status:  "disabled",
			Message: "no audit sink configured",
		}
	}
	if err := sink.Verify(r.Context()); err != nil {
		c := failed("audit_sink", err)
		c.Status = "degraded"
		return c
	}
	head, ok, err := sink.Head(r.Context())
	if err != nil {
		return failed("audit_sink", err)
	}
	c := componentStatus{Name: "audit_sink", Healthy: true, Status: "healthy"}
	if ok {
		c.Details = auditDetails{LastHash: head.RecordHash, HeadSequence: head.Sequence}
	}
	return c
}

func failed(name string, err error) componentStatus {
	return componentStatus{
		Name:    name,
		Healthy: false,
		Status:  "unhealthy",
		Message: err.Error(),
	}
}

func boolStatus(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

func overallStatus(components []componentStatus) string {
	for _, c := range components {
		if !c.Healthy {
			return "unhealthy"
		}
	}
	return "healthy"
}
