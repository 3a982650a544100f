// Package scan runs the fixed multi-stage analysis pipeline for one domain
// and owns all mutation of that scan's registry record.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
)

// Notifier publishes progress events for a scan. The orchestrator is the
// only publisher for a given scan id.
type Notifier interface {
	Publish(ev notify.Event)
}

// Pipeline checkpoints. Each stage owns one progress value and message,
// executed strictly in sequence.
const (
	progressStart          = 5
	progressAuthenticity   = 15
	progressReconnaissance = 35
	progressThreat         = 50
	progressGraph          = 65
	progressWeb3           = 75
	progressWorkflows      = 90
	progressFinalize       = 95
)

// Orchestrator drives scans through the pipeline: one goroutine per scan,
// no shared mutable state between scans besides the registry.
type Orchestrator struct {
	reg      *registry.Registry
	notifier Notifier

	checker AuthenticityChecker
	recon   ReconCollector
	threat  ThreatPredictor
	graph   GraphMapper
	web3    Web3Scanner

	// stageTimeout bounds each collaborator call; zero disables the deadline.
	stageTimeout time.Duration

	wg sync.WaitGroup
}

func NewOrchestrator(reg *registry.Registry, notifier Notifier, checker AuthenticityChecker,
	recon ReconCollector, threat ThreatPredictor, graph GraphMapper, web3 Web3Scanner,
	stageTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		reg:          reg,
		notifier:     notifier,
		checker:      checker,
		recon:        recon,
		threat:       threat,
		graph:        graph,
		web3:         web3,
		stageTimeout: stageTimeout,
	}
}

// StartScan admits a validated domain, creates the registry record and runs
// the pipeline asynchronously. The returned id can be polled immediately.
func (o *Orchestrator) StartScan(domain string) string {
	id := uuid.New().String()
	o.reg.Create(id, domain)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runScan(id, domain)
	}()
	return id
}

// Wait blocks until every scan started so far has reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) runScan(id, domain string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scan panicked", "scan_id", id, "panic", r)
			o.fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	ctx := context.Background()
	result := &Result{Domain: domain}

	o.checkpoint(id, progressStart, "Starting scan")

	o.checkpoint(id, progressAuthenticity, "Checking domain authenticity")
	if err := o.runStage(ctx, func(ctx context.Context) error {
		auth, err := o.checker.CheckAuthenticity(ctx, "https://"+domain)
		if err != nil {
			return err
		}
		result.Authenticity = auth
		// The official-link suggestion exists only for non-genuine domains;
		// a nil link is the contract for everything else.
		if !auth.IsGenuine {
			link, err := o.checker.OfficialLink(ctx, domain)
			if err != nil {
				return err
			}
			if link != "" {
				result.OfficialLink = &link
			}
		}
		return nil
	}); err != nil {
		o.fail(id, err.Error())
		return
	}

	o.checkpoint(id, progressReconnaissance, "Collecting reconnaissance data")
	if err := o.runStage(ctx, func(ctx context.Context) error {
		data, err := o.recon.Collect(ctx, domain)
		result.Reconnaissance = data
		return err
	}); err != nil {
		o.fail(id, err.Error())
		return
	}

	o.checkpoint(id, progressThreat, "Scoring threat level")
	if err := o.runStage(ctx, func(ctx context.Context) error {
		analysis, err := o.threat.Predict(ctx, result.Reconnaissance)
		result.ThreatAnalysis = analysis
		return err
	}); err != nil {
		o.fail(id, err.Error())
		return
	}

	o.checkpoint(id, progressGraph, "Mapping domain relationships")
	if err := o.runStage(ctx, func(ctx context.Context) error {
		graph, err := o.graph.Map(ctx, result.Reconnaissance)
		result.GraphData = graph
		return err
	}); err != nil {
		o.fail(id, err.Error())
		return
	}

	o.checkpoint(id, progressWeb3, "Scanning Web3 signals")
	if err := o.runStage(ctx, func(ctx context.Context) error {
		analysis, err := o.web3.Scan(ctx, domain)
		result.Web3Analysis = analysis
		return err
	}); err != nil {
		o.fail(id, err.Error())
		return
	}

	// Derived analyses over already-collected data. Arithmetic only; this
	// stage never fails the scan.
	o.checkpoint(id, progressWorkflows, "Running analysis workflows")
	result.WorkflowResults = RunWorkflows(result.Reconnaissance, result.ThreatAnalysis)

	o.checkpoint(id, progressFinalize, "Assembling report")
	if err := o.reg.Complete(id, result); err != nil {
		slog.Error("completing scan", "scan_id", id, "error", err)
		return
	}
	o.notifier.Publish(notify.Event{
		ScanID:   id,
		Progress: 100,
		Message:  "Scan complete",
		Status:   string(registry.StatusCompleted),
		Done:     true,
	})
	slog.Info("scan completed", "scan_id", id, "domain", domain)
}

// checkpoint updates the registry first, then publishes, so a status query
// and a notification are never observed out of order for the same stage.
func (o *Orchestrator) checkpoint(id string, progress int, message string) {
	if err := o.reg.SetProgress(id, progress, message); err != nil {
		slog.Warn("progress update on missing scan", "scan_id", id, "error", err)
		return
	}
	o.notifier.Publish(notify.Event{
		ScanID:   id,
		Progress: progress,
		Message:  message,
		Status:   string(registry.StatusProcessing),
	})
}

func (o *Orchestrator) fail(id, diagnostic string) {
	if err := o.reg.Fail(id, diagnostic); err != nil {
		slog.Warn("failure update on missing scan", "scan_id", id, "error", err)
		return
	}
	rec, err := o.reg.Get(id)
	progress := 0
	if err == nil {
		progress = rec.Progress
	}
	o.notifier.Publish(notify.Event{
		ScanID:   id,
		Progress: progress,
		Status:   string(registry.StatusFailed),
		Error:    diagnostic,
		Done:     true,
	})
	slog.Warn("scan failed", "scan_id", id, "error", diagnostic)
}

// runStage executes one collaborator call under the per-stage deadline.
func (o *Orchestrator) runStage(ctx context.Context, fn func(ctx context.Context) error) error {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	return fn(ctx)
}
