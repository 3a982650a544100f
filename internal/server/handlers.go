package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rshaw/domainscope/internal/database"
	"github.com/rshaw/domainscope/internal/monitor"
	"github.com/rshaw/domainscope/internal/registry"
	"github.com/rshaw/domainscope/internal/report"
	"github.com/rshaw/domainscope/internal/scan"
	"github.com/rshaw/domainscope/internal/validate"
	"github.com/rshaw/domainscope/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientKey identifies the caller for throttling. The first X-Forwarded-For
// hop wins when present; otherwise the peer address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type startScanRequest struct {
	Domain string `json:"domain"`
}

type startScanResponse struct {
	ScanID string `json:"scan_id"`
	Domain string `json:"domain"`
	Status string `json:"status"`
}

// handleStartScan admits a scan request: decode, validate, throttle, start.
// Rejected requests never count against the caller's rate window.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req startScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	domain := validate.Normalize(req.Domain)
	if err := validate.Domain(domain); err != nil {
		if errors.Is(err, validate.ErrDomainRequired) {
			writeError(w, http.StatusBadRequest, "Domain is required")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid domain format")
		}
		return
	}

	if !s.throttle.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
		return
	}

	id := s.orchestrator.StartScan(domain)
	writeJSON(w, http.StatusOK, startScanResponse{
		ScanID: id,
		Domain: domain,
		Status: string(registry.StatusProcessing),
	})
}

// handleScan dispatches /api/scan/{id}/{status|report|download}.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/scan/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]

	switch parts[1] {
	case "status":
		s.handleScanStatus(w, id)
	case "report":
		s.handleScanReport(w, r, id)
	case "download":
		s.handleScanDownload(w, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleScanStatus(w http.ResponseWriter, id string) {
	rec, err := s.reg.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Scan not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) completedResult(w http.ResponseWriter, id string) (*scan.Result, bool) {
	raw, err := s.reg.Result(id)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			writeError(w, http.StatusNotFound, "Scan not found")
		case errors.Is(err, registry.ErrNotCompleted):
			writeError(w, http.StatusConflict, "Scan not completed")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	result, ok := raw.(*scan.Result)
	if !ok {
		writeError(w, http.StatusInternalServerError, "malformed scan result")
		return nil, false
	}
	return result, true
}

func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request, id string) {
	result, ok := s.completedResult(w, id)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(s.reportGen.GenerateMarkdown(result)))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScanDownload(w http.ResponseWriter, id string) {
	result, ok := s.completedResult(w, id)
	if !ok {
		return
	}
	data, err := s.reportGen.GeneratePDF(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.PDFFilename(result.Domain)+`"`)
	w.Write(data)
}

// --- Workflows ---

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.List())
}

type executeRequest struct {
	Domain string         `json:"domain"`
	Params map[string]any `json:"params"`
}

// handleWorkflow dispatches /api/workflows/{id}/execute and
// /api/workflows/executions/{id}.
func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/workflows/"), "/")

	if len(parts) == 2 && parts[0] == "executions" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		exec, err := s.catalog.Status(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "Execution not found")
			return
		}
		writeJSON(w, http.StatusOK, exec)
		return
	}

	if len(parts) == 2 && parts[1] == "execute" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		domain := validate.Normalize(req.Domain)
		if err := validate.Domain(domain); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid domain format")
			return
		}
		// Workflow executions draw from the same admission window as scans.
		if !s.throttle.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
			return
		}
		execID, err := s.catalog.Execute(parts[0], domain, req.Params)
		if err != nil {
			writeError(w, http.StatusNotFound, "Workflow not found")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"execution_id": execID,
			"workflow_id":  parts[0],
			"state":        workflow.StateQueued,
		})
		return
	}

	writeError(w, http.StatusNotFound, "not found")
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	execs, err := s.db.ListExecutions(r.URL.Query().Get("domain"), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if execs == nil {
		execs = []database.WorkflowExecution{}
	}
	writeJSON(w, http.StatusOK, execs)
}

// --- Monitors ---

type monitorRequest struct {
	Domain  string `json:"domain"`
	Enabled *bool  `json:"enabled,omitempty"`
}

func (s *Server) handleMonitors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		monitors, err := s.monitors.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, monitors)

	case http.MethodPost:
		var req monitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		m, err := s.monitors.Add(req.Domain)
		if err != nil {
			if errors.Is(err, validate.ErrDomainRequired) {
				writeError(w, http.StatusBadRequest, "Domain is required")
			} else if errors.Is(err, validate.ErrInvalidDomain) {
				writeError(w, http.StatusBadRequest, "Invalid domain format")
			} else {
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusCreated, m)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMonitor dispatches /api/monitors/{id} and /api/monitors/{id}/history.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/monitors/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monitor id")
		return
	}

	if len(parts) == 2 && parts[1] == "history" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		history, err := s.monitors.History(id, limit)
		if err != nil {
			s.monitorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
		return
	}

	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req monitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if err := s.monitors.SetEnabled(id, *req.Enabled); err != nil {
			s.monitorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})

	case http.MethodDelete:
		if err := s.monitors.Delete(id); err != nil {
			s.monitorError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) monitorError(w http.ResponseWriter, err error) {
	if errors.Is(err, monitor.ErrMonitorNotFound) {
		writeError(w, http.StatusNotFound, "Monitor not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
