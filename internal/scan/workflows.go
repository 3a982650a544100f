package scan

import (
	"fmt"
	"strings"

	"github.com/rshaw/domainscope/internal/collab"
)

// Compliance scoring constants. The audit starts from a perfect score and
// deducts a fixed penalty per missing critical header and per high-risk
// reconnaissance finding, never going below zero.
const (
	ComplianceBaselineScore = 100
	MissingHeaderPenalty    = 15
	HighRiskFindingPenalty  = 10
)

// CriticalHeaders are the response headers whose absence the compliance
// audit penalizes.
var CriticalHeaders = []string{
	"Content-Security-Policy",
	"X-Frame-Options",
	"Strict-Transport-Security",
}

// WorkflowResults aggregates the derived analyses computed after the
// collaborator stages. They are pure functions of data already collected.
type WorkflowResults struct {
	ThreatHunter    *ThreatHunterResult    `json:"threat_hunter_workflow"`
	ComplianceAudit *ComplianceAuditResult `json:"compliance_audit_workflow"`
}

// ThreatHunterResult condenses the threat assessment into a hunt summary.
type ThreatHunterResult struct {
	RiskScore    int      `json:"risk_score"`
	PhishingRisk string   `json:"phishing_risk"`
	IsAnomaly    bool     `json:"is_anomaly"`
	Indicators   []string `json:"indicators"`
	Summary      string   `json:"summary"`
}

// ComplianceAuditResult reports the header and finding based posture score.
type ComplianceAuditResult struct {
	ComplianceScore int      `json:"compliance_score"`
	MissingHeaders  []string `json:"missing_headers"`
	HighRiskCount   int      `json:"high_risk_count"`
	Issues          []string `json:"issues"`
}

// RunWorkflows executes every built-in workflow over collected scan data.
// Workflows are arithmetic over existing data and cannot fail a scan.
func RunWorkflows(recon *collab.ReconData, threat *collab.ThreatAnalysis) *WorkflowResults {
	return &WorkflowResults{
		ThreatHunter:    ThreatHunterSummary(recon, threat),
		ComplianceAudit: ComplianceAudit(recon),
	}
}

// ThreatHunterSummary rolls the rule-based flags and risk score into a
// one-paragraph hunting summary.
func ThreatHunterSummary(recon *collab.ReconData, threat *collab.ThreatAnalysis) *ThreatHunterResult {
	out := &ThreatHunterResult{PhishingRisk: "Low"}
	if threat != nil {
		out.RiskScore = threat.RiskScore
		out.PhishingRisk = threat.PhishingRisk
		out.IsAnomaly = threat.IsAnomaly
		out.Indicators = append(out.Indicators, threat.RuleBasedFlags...)
	}
	if recon != nil {
		for _, f := range recon.Findings {
			if f.Severity == collab.SeverityHigh {
				out.Indicators = append(out.Indicators, f.Name)
			}
		}
	}
	switch {
	case out.IsAnomaly:
		out.Summary = fmt.Sprintf("Anomalous domain profile with risk score %d; %d indicators warrant review.",
			out.RiskScore, len(out.Indicators))
	case len(out.Indicators) > 0:
		out.Summary = fmt.Sprintf("Risk score %d with %d minor indicators; no anomaly detected.",
			out.RiskScore, len(out.Indicators))
	default:
		out.Summary = fmt.Sprintf("No threat indicators observed; risk score %d.", out.RiskScore)
	}
	return out
}

// ComplianceAudit scores security posture from observed response headers
// and high-risk findings. Without reconnaissance data nothing was
// observed, so the score stays at the baseline.
func ComplianceAudit(recon *collab.ReconData) *ComplianceAuditResult {
	out := &ComplianceAuditResult{ComplianceScore: ComplianceBaselineScore}
	if recon == nil {
		return out
	}

	present := map[string]bool{}
	for name := range recon.SecurityHeaders {
		present[strings.ToLower(name)] = true
	}
	for _, header := range CriticalHeaders {
		if !present[strings.ToLower(header)] {
			out.MissingHeaders = append(out.MissingHeaders, header)
			out.Issues = append(out.Issues, "Missing security header: "+header)
			out.ComplianceScore -= MissingHeaderPenalty
		}
	}

	for _, f := range recon.Findings {
		if f.Severity == collab.SeverityHigh {
			out.HighRiskCount++
			out.Issues = append(out.Issues, "High-risk finding: "+f.Name)
			out.ComplianceScore -= HighRiskFindingPenalty
		}
	}

	if out.ComplianceScore < 0 {
		out.ComplianceScore = 0
	}
	return out
}
