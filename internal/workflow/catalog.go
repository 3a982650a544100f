// Package workflow exposes the named analysis workflows as individually
// executable jobs with their own lifecycle, separate from the inline
// workflow stage of a scan.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rshaw/domainscope/internal/collab"
	"github.com/rshaw/domainscope/internal/scan"
)

// Execution lifecycle states.
const (
	StateQueued    = "queued"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Built-in workflow identifiers.
const (
	IDThreatHunter    = "threat_hunter"
	IDComplianceAudit = "compliance_audit"
)

var (
	ErrUnknownWorkflow  = errors.New("unknown workflow")
	ErrUnknownExecution = errors.New("unknown execution")
)

// Definition describes one catalog entry.
type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Execution is a snapshot of one workflow run.
type Execution struct {
	ID         string         `json:"execution_id"`
	WorkflowID string         `json:"workflow_id"`
	Domain     string         `json:"domain"`
	Params     map[string]any `json:"params,omitempty"`
	State      string         `json:"state"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
}

// ReconProvider supplies reconnaissance and threat data for a domain. The
// server wires this to completed scan results so workflows reuse collected
// data instead of re-scanning.
type ReconProvider func(ctx context.Context, domain string) (*collab.ReconData, *collab.ThreatAnalysis, error)

// AuditStore persists finished executions. Nil disables persistence.
type AuditStore interface {
	RecordExecution(ctx context.Context, executionID, workflowID, domain, state, errMsg string) error
}

// Catalog holds the fixed workflow set and tracks executions in memory.
type Catalog struct {
	provider ReconProvider
	store    AuditStore

	mu         sync.RWMutex
	executions map[string]*Execution
	wg         sync.WaitGroup
}

func NewCatalog(provider ReconProvider, store AuditStore) *Catalog {
	return &Catalog{
		provider:   provider,
		store:      store,
		executions: make(map[string]*Execution),
	}
}

// List returns the catalog in a stable order.
func (c *Catalog) List() []Definition {
	return []Definition{
		{
			ID:          IDThreatHunter,
			Name:        "Threat Hunter",
			Description: "Condenses threat scoring and high-risk findings into a hunting summary.",
		},
		{
			ID:          IDComplianceAudit,
			Name:        "Compliance Audit",
			Description: "Scores security posture from response headers and high-risk findings.",
		},
	}
}

// Execute queues a run of the named workflow against a domain and returns
// its execution id immediately. Params are recorded on the execution and
// passed to the workflow; the built-in workflows take none.
func (c *Catalog) Execute(workflowID, domain string, params map[string]any) (string, error) {
	if !c.known(workflowID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowID)
	}

	exec := &Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Domain:     domain,
		Params:     params,
		State:      StateQueued,
		StartedAt:  time.Now().UTC(),
	}
	c.mu.Lock()
	c.executions[exec.ID] = exec
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(exec.ID, workflowID, domain, params)
	}()
	return exec.ID, nil
}

// Status returns a snapshot of one execution.
func (c *Catalog) Status(executionID string) (Execution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exec, ok := c.executions[executionID]
	if !ok {
		return Execution{}, ErrUnknownExecution
	}
	return *exec, nil
}

// Wait blocks until all queued executions finish.
func (c *Catalog) Wait() {
	c.wg.Wait()
}

func (c *Catalog) known(workflowID string) bool {
	for _, def := range c.List() {
		if def.ID == workflowID {
			return true
		}
	}
	return false
}

// run executes the workflow body. The built-in workflows derive everything
// from collected data and ignore params.
func (c *Catalog) run(executionID, workflowID, domain string, _ map[string]any) {
	c.transition(executionID, func(e *Execution) { e.State = StateRunning })

	ctx := context.Background()
	recon, threat, err := c.provider(ctx, domain)
	if err != nil {
		c.finish(ctx, executionID, nil, err)
		return
	}

	var result any
	switch workflowID {
	case IDThreatHunter:
		result = scan.ThreatHunterSummary(recon, threat)
	case IDComplianceAudit:
		result = scan.ComplianceAudit(recon)
	}
	c.finish(ctx, executionID, result, nil)
}

func (c *Catalog) transition(executionID string, fn func(*Execution)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if exec, ok := c.executions[executionID]; ok {
		fn(exec)
	}
}

func (c *Catalog) finish(ctx context.Context, executionID string, result any, runErr error) {
	var workflowID, domain, state, errMsg string
	c.transition(executionID, func(e *Execution) {
		e.FinishedAt = time.Now().UTC()
		if runErr != nil {
			e.State = StateFailed
			e.Error = runErr.Error()
		} else {
			e.State = StateCompleted
			e.Result = result
		}
		workflowID, domain, state, errMsg = e.WorkflowID, e.Domain, e.State, e.Error
	})

	if c.store != nil {
		if err := c.store.RecordExecution(ctx, executionID, workflowID, domain, state, errMsg); err != nil {
			slog.Warn("recording workflow execution", "execution_id", executionID, "error", err)
		}
	}
}
