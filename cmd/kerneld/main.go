package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/caarlos0/env/v11"
	dbm "github.com/cosmos/cosmos-db"

	"github.com/sovereignlabor/kernel/app"
	"github.com/sovereignlabor/kernel/internal/policy"
)

const maxManifestBytes = 1 << 20

type nodeConfig struct {
	Home        string        `env:"KERNEL_HOME"         envDefault:".kernel"`
	ListenAddr  string        `env:"KERNEL_LISTEN_ADDR"  envDefault:":8646"`
	GenesisFile string        `env:"KERNEL_GENESIS_FILE"`
	GenesisTime time.Time     `env:"KERNEL_GENESIS_TIME"`
	ShutdownTTL time.Duration `env:"KERNEL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	logger := log.NewLogger(os.Stderr)
	if err := run(logger); err != nil {
		logger.Error("kerneld failed", "err", err)
		os.Exit(1)
	}
}

func run(logger log.Logger) error {
	var node nodeConfig
	if err := env.Parse(&node); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg, err := app.ParseConfig()
	if err != nil {
		return err
	}

	db, err := dbm.NewDB("application", dbm.GoLevelDBBackend, node.Home)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	kernel, err := app.New(logger, db, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kernel.Close(); err != nil {
			logger.Error("close failed", "err", err)
		}
	}()

	if kernel.LastBlockHeight() == 0 {
		if err := initChain(kernel, node); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/health", kernel.HealthHandler())
	mux.HandleFunc("/policy/plan", planHandler(kernel))
	mux.HandleFunc("/audit", auditHandler(kernel))

	httpServer := &http.Server{
		Addr:              node.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting kerneld", "addr", node.ListenAddr, "chain_id", cfg.ChainID, "height", kernel.LastBlockHeight())
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), node.ShutdownTTL)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// initChain loads the genesis file into a fresh store and commits it as the
// first block.
func initChain(kernel *app.KernelApp, node nodeConfig) error {
	if node.GenesisFile == "" {
		return errors.New("empty store and no KERNEL_GENESIS_FILE")
	}
	gs, err := app.LoadGenesisFile(node.GenesisFile)
	if err != nil {
		return err
	}
	start := node.GenesisTime
	if start.IsZero() {
		start = time.Now()
	}
	if err := kernel.InitGenesis(kernel.NewContext(start), gs); err != nil {
		return err
	}
	id := kernel.Commit()
	kernel.Logger().Info("genesis committed", "height", id.Version)
	return nil
}

// planHandler renders the plan a posted manifest would produce against the
// current state. Nothing is applied.
func planHandler(kernel *app.KernelApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxManifestBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m, err := policy.ParseManifest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		plan, err := kernel.PlanPolicy(kernel.QueryContext(), m)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, plan.Summary(nil))
	}
}

func auditHandler(kernel *app.KernelApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sink := kernel.AuditSink()
		if sink == nil {
			http.Error(w, "audit sink disabled", http.StatusNotFound)
			return
		}
		from, _ := strconv.ParseUint(r.URL.Query().Get("from"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		entries, err := sink.Entries(r.Context(), from, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	}
}
