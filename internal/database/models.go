package database

import "time"

type Monitor struct {
	ID            int64      `json:"id"`
	Domain        string     `json:"domain"`
	Enabled       bool       `json:"enabled"`
	LastRiskScore int        `json:"last_risk_score"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type MonitorCheck struct {
	ID           int64     `json:"id"`
	MonitorID    int64     `json:"monitor_id"`
	RiskScore    int       `json:"risk_score"`
	IsAnomaly    bool      `json:"is_anomaly"`
	FindingCount int       `json:"finding_count"`
	Note         string    `json:"note,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

type WorkflowExecution struct {
	ID          int64     `json:"id"`
	ExecutionID string    `json:"execution_id"`
	WorkflowID  string    `json:"workflow_id"`
	Domain      string    `json:"domain"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
