// Package server exposes the scan, workflow and monitor APIs over HTTP and
// streams live scan progress over WebSocket.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rshaw/domainscope/internal/config"
	"github.com/rshaw/domainscope/internal/database"
	"github.com/rshaw/domainscope/internal/monitor"
	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
	"github.com/rshaw/domainscope/internal/report"
	"github.com/rshaw/domainscope/internal/scan"
	"github.com/rshaw/domainscope/internal/throttle"
	"github.com/rshaw/domainscope/internal/workflow"
)

type Server struct {
	cfg          *config.Config
	db           *database.DB
	reg          *registry.Registry
	hub          *notify.Hub
	orchestrator *scan.Orchestrator
	throttle     *throttle.Throttle
	catalog      *workflow.Catalog
	monitors     *monitor.Service
	reportGen    *report.Generator
	mux          *http.ServeMux
}

func New(cfg *config.Config, db *database.DB, reg *registry.Registry, hub *notify.Hub,
	orchestrator *scan.Orchestrator, limiter *throttle.Throttle,
	catalog *workflow.Catalog, monitors *monitor.Service) *Server {

	s := &Server{
		cfg:          cfg,
		db:           db,
		reg:          reg,
		hub:          hub,
		orchestrator: orchestrator,
		throttle:     limiter,
		catalog:      catalog,
		monitors:     monitors,
		reportGen:    report.NewGenerator(cfg.Reports.Directory),
		mux:          http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	slog.Info("starting server", "addr", addr)

	return http.ListenAndServe(addr, s.Handler())
}

// Handler returns the full middleware-wrapped handler, exported for tests.
func (s *Server) Handler() http.Handler {
	return recoveryMiddleware(securityHeaders(loggingMiddleware(s.mux)))
}

func (s *Server) registerRoutes() {
	// Scans
	s.mux.HandleFunc("/api/scan", s.handleStartScan)
	s.mux.HandleFunc("/api/scan/", s.handleScan)

	// Workflows
	s.mux.HandleFunc("/api/workflows", s.handleListWorkflows)
	s.mux.HandleFunc("/api/workflows/", s.handleWorkflow)
	s.mux.HandleFunc("/api/executions", s.handleListExecutions)

	// Monitors
	s.mux.HandleFunc("/api/monitors", s.handleMonitors)
	s.mux.HandleFunc("/api/monitors/", s.handleMonitor)

	// Health
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// WebSocket
	s.mux.HandleFunc("/ws", s.handleWebSocket)
}
