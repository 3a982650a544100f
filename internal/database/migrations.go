package database

const schema = `
CREATE TABLE IF NOT EXISTS monitors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL UNIQUE,
    enabled INTEGER DEFAULT 1,
    last_risk_score INTEGER DEFAULT 0,
    last_checked_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS monitor_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    monitor_id INTEGER REFERENCES monitors(id) ON DELETE CASCADE,
    risk_score INTEGER NOT NULL,
    is_anomaly INTEGER DEFAULT 0,
    finding_count INTEGER DEFAULT 0,
    note TEXT DEFAULT '',
    checked_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS workflow_executions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    execution_id TEXT NOT NULL UNIQUE,
    workflow_id TEXT NOT NULL,
    domain TEXT NOT NULL,
    state TEXT NOT NULL,
    error TEXT DEFAULT '',
    recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_monitor ON monitor_history(monitor_id);
CREATE INDEX IF NOT EXISTS idx_executions_domain ON workflow_executions(domain);
CREATE INDEX IF NOT EXISTS idx_executions_workflow ON workflow_executions(workflow_id);
`
