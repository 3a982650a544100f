// Package monitor re-checks registered domains on a fixed interval and
// records the risk trend in the database.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rshaw/domainscope/internal/database"
	"github.com/rshaw/domainscope/internal/scan"
	"github.com/rshaw/domainscope/internal/validate"
)

var ErrMonitorNotFound = errors.New("monitor not found")

// Service owns monitor CRUD and the periodic check loop.
type Service struct {
	db       *database.DB
	recon    scan.ReconCollector
	threat   scan.ThreatPredictor
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewService(db *database.DB, recon scan.ReconCollector, threat scan.ThreatPredictor, interval time.Duration) *Service {
	return &Service{
		db:       db,
		recon:    recon,
		threat:   threat,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Add registers a domain for periodic monitoring.
func (s *Service) Add(domain string) (*database.Monitor, error) {
	domain = validate.Normalize(domain)
	if err := validate.Domain(domain); err != nil {
		return nil, err
	}
	m := &database.Monitor{Domain: domain, Enabled: true}
	if err := s.db.CreateMonitor(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) List() ([]database.Monitor, error) {
	return s.db.ListMonitors()
}

func (s *Service) History(id int64, limit int) ([]database.MonitorCheck, error) {
	m, err := s.db.GetMonitor(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMonitorNotFound
	}
	return s.db.MonitorHistory(id, limit)
}

func (s *Service) SetEnabled(id int64, enabled bool) error {
	m, err := s.db.GetMonitor(id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMonitorNotFound
	}
	return s.db.SetMonitorEnabled(id, enabled)
}

func (s *Service) Delete(id int64) error {
	m, err := s.db.GetMonitor(id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMonitorNotFound
	}
	return s.db.DeleteMonitor(id)
}

// Start launches the check loop. A zero interval disables it.
func (s *Service) Start() {
	if s.interval <= 0 {
		close(s.done)
		return
	}
	go s.run()
}

// Stop halts the check loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Service) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	monitors, err := s.db.ListEnabledMonitors()
	if err != nil {
		slog.Error("listing monitors", "error", err)
		return
	}
	for _, m := range monitors {
		if err := s.check(m); err != nil {
			slog.Warn("monitor check failed", "domain", m.Domain, "error", err)
		}
	}
}

func (s *Service) check(m database.Monitor) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, err := s.recon.Collect(ctx, m.Domain)
	if err != nil {
		return fmt.Errorf("collecting %s: %w", m.Domain, err)
	}
	analysis, err := s.threat.Predict(ctx, data)
	if err != nil {
		return fmt.Errorf("scoring %s: %w", m.Domain, err)
	}

	check := &database.MonitorCheck{
		MonitorID:    m.ID,
		RiskScore:    analysis.RiskScore,
		IsAnomaly:    analysis.IsAnomaly,
		FindingCount: len(data.Findings),
	}
	if analysis.RiskScore > m.LastRiskScore {
		check.Note = fmt.Sprintf("risk increased from %d to %d", m.LastRiskScore, analysis.RiskScore)
	}
	if err := s.db.RecordMonitorCheck(check); err != nil {
		return err
	}
	slog.Info("monitor check", "domain", m.Domain, "risk_score", analysis.RiskScore, "anomaly", analysis.IsAnomaly)
	return nil
}
