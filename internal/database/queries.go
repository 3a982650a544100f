package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// --- Monitors ---

func (db *DB) CreateMonitor(m *Monitor) error {
	res, err := db.Exec(
		`INSERT INTO monitors (domain, enabled) VALUES (?, ?)`,
		m.Domain, m.Enabled,
	)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	return nil
}

func (db *DB) GetMonitor(id int64) (*Monitor, error) {
	m := &Monitor{}
	err := db.QueryRow(
		`SELECT id, domain, enabled, last_risk_score, last_checked_at, created_at FROM monitors WHERE id = ?`, id,
	).Scan(&m.ID, &m.Domain, &m.Enabled, &m.LastRiskScore, &m.LastCheckedAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	return m, nil
}

func (db *DB) ListMonitors() ([]Monitor, error) {
	rows, err := db.Query(`SELECT id, domain, enabled, last_risk_score, last_checked_at, created_at FROM monitors ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		var m Monitor
		if err := rows.Scan(&m.ID, &m.Domain, &m.Enabled, &m.LastRiskScore, &m.LastCheckedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		monitors = append(monitors, m)
	}
	return monitors, rows.Err()
}

func (db *DB) ListEnabledMonitors() ([]Monitor, error) {
	rows, err := db.Query(`SELECT id, domain, enabled, last_risk_score, last_checked_at, created_at FROM monitors WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("list enabled monitors: %w", err)
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		var m Monitor
		if err := rows.Scan(&m.ID, &m.Domain, &m.Enabled, &m.LastRiskScore, &m.LastCheckedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		monitors = append(monitors, m)
	}
	return monitors, rows.Err()
}

func (db *DB) SetMonitorEnabled(id int64, enabled bool) error {
	_, err := db.Exec(`UPDATE monitors SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	return nil
}

func (db *DB) DeleteMonitor(id int64) error {
	_, err := db.Exec(`DELETE FROM monitors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	return nil
}

// --- Monitor history ---

func (db *DB) RecordMonitorCheck(c *MonitorCheck) error {
	res, err := db.Exec(
		`INSERT INTO monitor_history (monitor_id, risk_score, is_anomaly, finding_count, note) VALUES (?, ?, ?, ?, ?)`,
		c.MonitorID, c.RiskScore, c.IsAnomaly, c.FindingCount, c.Note,
	)
	if err != nil {
		return fmt.Errorf("insert monitor check: %w", err)
	}
	c.ID, _ = res.LastInsertId()

	now := time.Now().UTC()
	_, err = db.Exec(
		`UPDATE monitors SET last_risk_score = ?, last_checked_at = ? WHERE id = ?`,
		c.RiskScore, now, c.MonitorID,
	)
	if err != nil {
		return fmt.Errorf("update monitor last check: %w", err)
	}
	return nil
}

func (db *DB) MonitorHistory(monitorID int64, limit int) ([]MonitorCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, monitor_id, risk_score, is_anomaly, finding_count, note, checked_at
		 FROM monitor_history WHERE monitor_id = ? ORDER BY checked_at DESC LIMIT ?`,
		monitorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list monitor history: %w", err)
	}
	defer rows.Close()

	var checks []MonitorCheck
	for rows.Next() {
		var c MonitorCheck
		if err := rows.Scan(&c.ID, &c.MonitorID, &c.RiskScore, &c.IsAnomaly, &c.FindingCount, &c.Note, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan monitor check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// --- Workflow executions ---

func (db *DB) RecordExecution(ctx context.Context, executionID, workflowID, domain, state, errMsg string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO workflow_executions (execution_id, workflow_id, domain, state, error) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(execution_id) DO UPDATE SET state = excluded.state, error = excluded.error`,
		executionID, workflowID, domain, state, errMsg,
	)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

func (db *DB) ListExecutions(domain string, limit int) ([]WorkflowExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, execution_id, workflow_id, domain, state, error, recorded_at FROM workflow_executions`
	args := []any{}
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY recorded_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []WorkflowExecution
	for rows.Next() {
		var e WorkflowExecution
		if err := rows.Scan(&e.ID, &e.ExecutionID, &e.WorkflowID, &e.Domain, &e.State, &e.Error, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}
