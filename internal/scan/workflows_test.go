package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshaw/domainscope/internal/collab"
)

func TestComplianceAuditPerfectScore(t *testing.T) {
	recon := &collab.ReconData{
		SecurityHeaders: map[string]string{
			"Content-Security-Policy":   "default-src 'self'",
			"X-Frame-Options":           "DENY",
			"Strict-Transport-Security": "max-age=31536000",
		},
	}

	audit := ComplianceAudit(recon)
	assert.Equal(t, 100, audit.ComplianceScore)
	assert.Empty(t, audit.MissingHeaders)
	assert.Empty(t, audit.Issues)
	assert.Equal(t, 0, audit.HighRiskCount)
}

func TestComplianceAuditDeductions(t *testing.T) {
	// All three critical headers missing and one high-risk finding:
	// 100 - 3*15 - 10 = 45.
	recon := &collab.ReconData{
		SecurityHeaders: map[string]string{"Server": "nginx"},
		Findings: []collab.Finding{
			{Name: "Telnet exposed", Severity: collab.SeverityHigh},
			{Name: "Server version disclosure", Severity: collab.SeverityLow},
		},
	}

	audit := ComplianceAudit(recon)
	assert.Equal(t, 45, audit.ComplianceScore)
	assert.Len(t, audit.MissingHeaders, 3)
	assert.Equal(t, 1, audit.HighRiskCount)
	assert.Len(t, audit.Issues, 4)
}

func TestComplianceAuditHeaderMatchIsCaseInsensitive(t *testing.T) {
	recon := &collab.ReconData{
		SecurityHeaders: map[string]string{
			"content-security-policy":   "default-src 'self'",
			"x-frame-options":           "DENY",
			"strict-transport-security": "max-age=31536000",
		},
	}

	audit := ComplianceAudit(recon)
	assert.Equal(t, 100, audit.ComplianceScore)
}

func TestComplianceAuditScoreFloorsAtZero(t *testing.T) {
	findings := make([]collab.Finding, 10)
	for i := range findings {
		findings[i] = collab.Finding{Name: "issue", Severity: collab.SeverityHigh}
	}
	recon := &collab.ReconData{Findings: findings}

	audit := ComplianceAudit(recon)
	assert.Equal(t, 0, audit.ComplianceScore)
	assert.Equal(t, 10, audit.HighRiskCount)
}

func TestComplianceAuditNilRecon(t *testing.T) {
	audit := ComplianceAudit(nil)
	assert.Equal(t, ComplianceBaselineScore, audit.ComplianceScore)
	assert.Empty(t, audit.MissingHeaders)
	assert.Empty(t, audit.Issues)
}

func TestThreatHunterSummaryAnomaly(t *testing.T) {
	recon := &collab.ReconData{
		Findings: []collab.Finding{
			{Name: "Invalid TLS certificate", Severity: collab.SeverityHigh},
		},
	}
	threat := &collab.ThreatAnalysis{
		RiskScore:      70,
		PhishingRisk:   "High",
		IsAnomaly:      true,
		RuleBasedFlags: []string{"flagged by VirusTotal"},
	}

	hunter := ThreatHunterSummary(recon, threat)
	assert.Equal(t, 70, hunter.RiskScore)
	assert.True(t, hunter.IsAnomaly)
	assert.Len(t, hunter.Indicators, 2)
	assert.Contains(t, hunter.Summary, "Anomalous")
}

func TestThreatHunterSummaryClean(t *testing.T) {
	hunter := ThreatHunterSummary(&collab.ReconData{}, &collab.ThreatAnalysis{RiskScore: 0, PhishingRisk: "Low"})
	assert.False(t, hunter.IsAnomaly)
	assert.Empty(t, hunter.Indicators)
	assert.Contains(t, hunter.Summary, "No threat indicators")
}

func TestRunWorkflowsNeverNil(t *testing.T) {
	results := RunWorkflows(nil, nil)
	require.NotNil(t, results)
	require.NotNil(t, results.ThreatHunter)
	require.NotNil(t, results.ComplianceAudit)
}
