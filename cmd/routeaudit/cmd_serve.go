package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/newtron-network/routeaudit/pkg/metrics"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups and metrics over HTTP",
	Long: `Serve the table over HTTP.

Endpoints:
  GET  /lookup?addr=A.B.C.D   longest-prefix match (404 when no route)
  GET  /routes                table entries
  GET  /optimize              optimizer proposal with verify result
  POST /reload                reload the table from its source (also SIGHUP)
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := newServer(prometheus.NewRegistry(), loadTable)
		if err := srv.reload(ctx); err != nil {
			return err
		}

		addr := serveListen
		if addr == "" {
			addr = userSettings.GetListenAddr()
		}
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for {
				select {
				case <-hup:
					if err := srv.reload(ctx); err != nil {
						util.WithField("signal", "SIGHUP").Errorf("reload failed: %v", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			util.Infof("serving %s on %s", srv.tableName(), addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from settings, else :9190)")
}

// server holds the served table. Lookups take the read lock; reload swaps
// the table under the write lock.
type server struct {
	mu     sync.RWMutex
	table  *routing.Table
	source string
	loaded time.Time

	load    func(context.Context) (*loadedTable, error)
	reg     *prometheus.Registry
	metrics *metrics.Metrics
}

func newServer(reg *prometheus.Registry, load func(context.Context) (*loadedTable, error)) *server {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &server{
		load:    load,
		reg:     reg,
		metrics: metrics.New(reg),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lookup", s.handleLookup)
	mux.HandleFunc("GET /routes", s.handleRoutes)
	mux.HandleFunc("GET /optimize", s.handleOptimize)
	mux.HandleFunc("POST /reload", s.handleReload)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

func (s *server) reload(ctx context.Context) error {
	lt, err := s.load(ctx)
	s.metrics.ObserveReload(tableOf(lt), err)
	if err != nil {
		return fmt.Errorf("loading table: %w", err)
	}

	for _, sk := range lt.skipped {
		s.metrics.ObserveRejected(sk.Err)
	}
	s.metrics.ObserveSteps(lt.table.Optimize())

	s.mu.Lock()
	s.table, s.source, s.loaded = lt.table, lt.source, time.Now()
	s.mu.Unlock()

	util.WithFields(map[string]interface{}{
		"table":  lt.table.Name(),
		"source": lt.source,
	}).Infof("loaded %d routes", lt.table.Len())
	return nil
}

func tableOf(lt *loadedTable) *routing.Table {
	if lt == nil {
		return nil
	}
	return lt.table
}

func (s *server) tableName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return ""
	}
	return s.table.Name()
}

func (s *server) handleLookup(w http.ResponseWriter, r *http.Request) {
	dest := r.URL.Query().Get("addr")
	if dest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addr query parameter required"})
		return
	}

	start := time.Now()
	s.mu.RLock()
	res, err := resolve(s.table, dest)
	s.mu.RUnlock()
	s.metrics.ObserveLookup(err, time.Since(start))

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, util.ErrNoRouteToDestination):
		writeJSON(w, http.StatusNotFound, res)
	default:
		writeJSON(w, http.StatusBadRequest, res)
	}
}

func (s *server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	entries := s.table.Entries()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	name, source := s.table.Name(), s.source
	before := s.table.Entries()
	s.mu.RUnlock()

	steps := routing.Optimize(before)
	report := optimizeReport{Table: name, Source: source, Steps: steps, Result: before, Verify: "passed"}
	if len(steps) > 0 {
		report.Result = steps[len(steps)-1].Snapshot
	}
	if err := routing.VerifySteps(before, steps); err != nil {
		report.Verify = "failed: " + err.Error()
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.handleHealthz(w, r)
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"table":   s.table.Name(),
		"source":  s.source,
		"entries": s.table.Len(),
		"loaded":  s.loaded.Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Debugf("writing response: %v", err)
	}
}
