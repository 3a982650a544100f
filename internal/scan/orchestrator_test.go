package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshaw/domainscope/internal/collab"
	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
)

// recorder captures every published event in order.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) forScan(id string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, ev := range r.events {
		if ev.ScanID == id {
			out = append(out, ev)
		}
	}
	return out
}

type stubChecker struct {
	genuine bool
	link    string
	err     error
}

func (s *stubChecker) CheckAuthenticity(ctx context.Context, url string) (*collab.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &collab.AuthResult{IsGenuine: s.genuine, ConfidenceScore: 90}, nil
}

func (s *stubChecker) OfficialLink(ctx context.Context, domain string) (string, error) {
	return s.link, nil
}

type stubRecon struct {
	data *collab.ReconData
	err  error
}

func (s *stubRecon) Collect(ctx context.Context, domain string) (*collab.ReconData, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.data != nil {
		return s.data, nil
	}
	return &collab.ReconData{Domain: domain, IP: "93.184.216.34"}, nil
}

type stubThreat struct{ err error }

func (s *stubThreat) Predict(ctx context.Context, data *collab.ReconData) (*collab.ThreatAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &collab.ThreatAnalysis{RiskScore: 10, PhishingRisk: "Low"}, nil
}

type stubGraph struct{}

func (s *stubGraph) Map(ctx context.Context, data *collab.ReconData) (*collab.Graph, error) {
	return &collab.Graph{}, nil
}

type stubWeb3 struct{}

func (s *stubWeb3) Scan(ctx context.Context, domain string) (*collab.Web3Analysis, error) {
	return &collab.Web3Analysis{}, nil
}

func newTestOrchestrator(rec *recorder, checker AuthenticityChecker, recon ReconCollector,
	threat ThreatPredictor) (*Orchestrator, *registry.Registry) {
	reg := registry.New(0)
	o := NewOrchestrator(reg, rec, checker, recon, threat, &stubGraph{}, &stubWeb3{}, 5*time.Second)
	return o, reg
}

func TestScanCompletes(t *testing.T) {
	rec := &recorder{}
	o, reg := newTestOrchestrator(rec, &stubChecker{genuine: true}, &stubRecon{}, &stubThreat{})

	id := o.StartScan("example.com")
	o.Wait()

	record, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusCompleted, record.Status)
	assert.Equal(t, 100, record.Progress)

	result, ok := record.Result.(*Result)
	require.True(t, ok)
	assert.Equal(t, "example.com", result.Domain)
	assert.NotNil(t, result.Authenticity)
	assert.NotNil(t, result.Reconnaissance)
	assert.NotNil(t, result.ThreatAnalysis)
	assert.NotNil(t, result.GraphData)
	assert.NotNil(t, result.Web3Analysis)
	assert.NotNil(t, result.WorkflowResults)
	assert.Nil(t, result.OfficialLink, "genuine domains get no official link")
}

func TestCheckpointSequence(t *testing.T) {
	rec := &recorder{}
	o, _ := newTestOrchestrator(rec, &stubChecker{genuine: true}, &stubRecon{}, &stubThreat{})

	id := o.StartScan("example.com")
	o.Wait()

	events := rec.forScan(id)
	var progress []int
	for _, ev := range events {
		progress = append(progress, ev.Progress)
	}
	assert.Equal(t, []int{5, 15, 35, 50, 65, 75, 90, 95, 100}, progress)

	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, string(registry.StatusCompleted), last.Status)
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Done)
	}
}

func TestOfficialLinkForNonGenuineDomain(t *testing.T) {
	rec := &recorder{}
	o, reg := newTestOrchestrator(rec,
		&stubChecker{genuine: false, link: "https://www.paypal.com"}, &stubRecon{}, &stubThreat{})

	id := o.StartScan("paypa1-login.com")
	o.Wait()

	record, err := reg.Get(id)
	require.NoError(t, err)
	result := record.Result.(*Result)
	require.NotNil(t, result.OfficialLink)
	assert.Equal(t, "https://www.paypal.com", *result.OfficialLink)
}

func TestScanAbortsOnStageFailure(t *testing.T) {
	rec := &recorder{}
	reconErr := errors.New("reconnaissance failed: lookup example.invalid: no such host")
	o, reg := newTestOrchestrator(rec, &stubChecker{genuine: true}, &stubRecon{err: reconErr}, &stubThreat{})

	id := o.StartScan("example.invalid")
	o.Wait()

	record, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusFailed, record.Status)
	assert.Equal(t, reconErr.Error(), record.Error)
	assert.Nil(t, record.Result)
	assert.Equal(t, 35, record.Progress, "failure happened during the reconnaissance stage")

	events := rec.forScan(id)
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, string(registry.StatusFailed), last.Status)
	assert.Equal(t, reconErr.Error(), last.Error)

	// No checkpoint after the failing stage.
	for _, ev := range events {
		assert.LessOrEqual(t, ev.Progress, 35)
	}
}

func TestAuthenticityFailureStopsPipeline(t *testing.T) {
	rec := &recorder{}
	authErr := errors.New("authenticity check failed: virustotal timeout")
	o, reg := newTestOrchestrator(rec, &stubChecker{err: authErr}, &stubRecon{}, &stubThreat{})

	id := o.StartScan("example.com")
	o.Wait()

	record, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusFailed, record.Status)
	assert.Equal(t, authErr.Error(), record.Error)
	assert.Equal(t, 15, record.Progress)
}

func TestConcurrentScansAreIsolated(t *testing.T) {
	rec := &recorder{}
	o, reg := newTestOrchestrator(rec, &stubChecker{genuine: true}, &stubRecon{}, &stubThreat{})

	idA := o.StartScan("alpha.example.com")
	idB := o.StartScan("beta.example.com")
	o.Wait()

	recA, err := reg.Get(idA)
	require.NoError(t, err)
	recB, err := reg.Get(idB)
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
	assert.Equal(t, registry.StatusCompleted, recA.Status)
	assert.Equal(t, registry.StatusCompleted, recB.Status)
	assert.Equal(t, "alpha.example.com", recA.Result.(*Result).Domain)
	assert.Equal(t, "beta.example.com", recB.Result.(*Result).Domain)
}
