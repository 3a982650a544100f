package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshaw/domainscope/internal/collab"
	"github.com/rshaw/domainscope/internal/scan"
)

func sampleResult() *scan.Result {
	link := "https://www.paypal.com"
	return &scan.Result{
		Domain: "paypa1-login.com",
		Authenticity: &collab.AuthResult{
			IsGenuine:       false,
			ConfidenceScore: 35,
			VTResult:        &collab.VTVerdict{Malicious: 4, Suspicious: 1},
		},
		Reconnaissance: &collab.ReconData{
			Domain: "paypa1-login.com",
			IP:     "203.0.113.7",
			Whois:  &collab.WhoisData{Registrar: "Example Registrar", Created: "2025-01-01"},
			DNS: []collab.DNSRecord{
				{Type: "A", Value: "203.0.113.7"},
				{Type: "MX", Value: "mail.paypa1-login.com"},
			},
			SSL:             &collab.SSLData{Issuer: "R3", Valid: false, TLSVersion: "TLS 1.2"},
			Geolocation:     &collab.GeoData{Country: "Netherlands", City: "Amsterdam", ISP: "Example ISP"},
			OpenPorts:       []collab.PortInfo{{Port: 443, Service: "https"}, {Port: 23, Service: "telnet"}},
			SecurityHeaders: map[string]string{"Server": "nginx"},
			Findings: []collab.Finding{
				{Name: "Telnet exposed", Severity: collab.SeverityHigh},
			},
			ProTip: "Enable HSTS to force encrypted connections.",
		},
		ThreatAnalysis: &collab.ThreatAnalysis{
			RiskScore:      75,
			PhishingRisk:   "High",
			IsAnomaly:      true,
			RuleBasedFlags: []string{"flagged by VirusTotal", "invalid certificate"},
		},
		GraphData:    &collab.Graph{},
		Web3Analysis: &collab.Web3Analysis{},
		WorkflowResults: &scan.WorkflowResults{
			ThreatHunter:    &scan.ThreatHunterResult{RiskScore: 75, PhishingRisk: "High", Summary: "review required"},
			ComplianceAudit: &scan.ComplianceAuditResult{ComplianceScore: 45, HighRiskCount: 1},
		},
		OfficialLink: &link,
	}
}

func TestGeneratePDF(t *testing.T) {
	g := NewGenerator(t.TempDir())
	data, err := g.GeneratePDF(sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)

	path, err := g.WritePDF(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "paypa1-login.com_reconnaissance_report.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerateMarkdown(t *testing.T) {
	g := NewGenerator(t.TempDir())
	md := g.GenerateMarkdown(sampleResult())

	assert.Contains(t, md, "# Domain Reconnaissance Report: paypa1-login.com")
	assert.Contains(t, md, "Potential security risk detected")
	assert.Contains(t, md, "https://www.paypal.com")
	assert.Contains(t, md, "4 malicious, 1 suspicious")
	assert.Contains(t, md, "| A | 203.0.113.7 |")
	assert.Contains(t, md, "**Risk Score:** 75/100")
	assert.Contains(t, md, "**Score:** 45/100")
	assert.Contains(t, md, "Enable HSTS")
}

func TestMarkdownHandlesMissingData(t *testing.T) {
	g := NewGenerator(t.TempDir())
	md := g.GenerateMarkdown(&scan.Result{Domain: "example.com"})

	assert.Contains(t, md, "No authenticity data collected.")
	assert.Contains(t, md, "No WHOIS data collected.")
	assert.Contains(t, md, "No DNS records found.")
	assert.Contains(t, md, "No threat analysis available.")
}

func TestPDFFilename(t *testing.T) {
	assert.Equal(t, "example.com_reconnaissance_report.pdf", PDFFilename("example.com"))
}
