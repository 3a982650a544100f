package collab

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFindingsRiskyPorts(t *testing.T) {
	data := &ReconData{
		OpenPorts: []PortInfo{
			{Port: 23, Service: "telnet"},
			{Port: 3306, Service: "mysql"},
			{Port: 21, Service: "ftp"},
			{Port: 443, Service: "https"},
		},
		SSL: &SSLData{Valid: true},
	}

	findings := deriveFindings(data)

	bySeverity := map[string]int{}
	for _, f := range findings {
		bySeverity[f.Severity]++
	}
	assert.Equal(t, 2, bySeverity[SeverityHigh], "telnet and mysql")
	assert.Equal(t, 1, bySeverity[SeverityMedium], "ftp")
}

func TestDeriveFindingsCertificate(t *testing.T) {
	findings := deriveFindings(&ReconData{SSL: &SSLData{Valid: false}})
	assert.Len(t, findings, 1)
	assert.Equal(t, "invalid certificate", findings[0].Name)
	assert.Equal(t, SeverityHigh, findings[0].Severity)

	findings = deriveFindings(&ReconData{})
	assert.Len(t, findings, 1)
	assert.Equal(t, "no https", findings[0].Name)
	assert.Equal(t, SeverityMedium, findings[0].Severity)
}

func TestDeriveFindingsVersionDisclosure(t *testing.T) {
	data := &ReconData{
		SSL:          &SSLData{Valid: true},
		Technologies: []string{"nginx/1.18.0"},
	}

	findings := deriveFindings(data)
	assert.Len(t, findings, 1)
	assert.Equal(t, "server version disclosure", findings[0].Name)
	assert.Equal(t, SeverityLow, findings[0].Severity)
}

func TestDeriveFindingsThreatIntel(t *testing.T) {
	data := &ReconData{
		SSL:        &SSLData{Valid: true},
		VirusTotal: &VTVerdict{Malicious: 3},
	}

	findings := deriveFindings(data)
	assert.Len(t, findings, 1)
	assert.Equal(t, "flagged by threat intel", findings[0].Name)
}

func TestTLSVersionName(t *testing.T) {
	assert.Equal(t, "TLS 1.2", tlsVersionName(tls.VersionTLS12))
	assert.Equal(t, "TLS 1.3", tlsVersionName(tls.VersionTLS13))
	assert.Equal(t, "Unknown (0x0000)", tlsVersionName(0))
}

func TestProTipIsDeterministic(t *testing.T) {
	tip := proTipFor("example.com")
	assert.NotEmpty(t, tip)
	assert.Equal(t, tip, proTipFor("example.com"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}
