package collab

import (
	"context"
	"fmt"
	"strings"
)

// Predictor scores the threat level of a domain from its reconnaissance
// data using a fixed rule set. No network I/O.
type Predictor struct{}

func NewPredictor() *Predictor {
	return &Predictor{}
}

// Rule weights. The score saturates at 100.
const (
	weightVTMalicious     = 25
	weightVTSuspicious    = 10
	weightInvalidCert     = 20
	weightNoTLS           = 15
	weightRiskyPort       = 10
	weightNoSecHeaders    = 10
	weightSuspiciousLabel = 15
)

// suspiciousTokens are label fragments common in phishing domains.
var suspiciousTokens = []string{
	"login", "verify", "secure", "account", "update", "confirm",
	"wallet", "support", "signin", "banking",
}

// Predict derives a 0-100 risk score with per-rule flags.
func (p *Predictor) Predict(ctx context.Context, data *ReconData) (*ThreatAnalysis, error) {
	if data == nil {
		return nil, fmt.Errorf("threat prediction: reconnaissance data missing")
	}

	score := 0
	var flags []string

	if data.VirusTotal != nil {
		if data.VirusTotal.Malicious > 0 {
			score += weightVTMalicious
			flags = append(flags, fmt.Sprintf("virustotal: %d malicious verdicts", data.VirusTotal.Malicious))
		}
		if data.VirusTotal.Suspicious > 0 {
			score += weightVTSuspicious
			flags = append(flags, fmt.Sprintf("virustotal: %d suspicious verdicts", data.VirusTotal.Suspicious))
		}
	}

	switch {
	case data.SSL == nil:
		score += weightNoTLS
		flags = append(flags, "no TLS endpoint")
	case !data.SSL.Valid:
		score += weightInvalidCert
		flags = append(flags, "invalid TLS certificate")
	}

	for _, port := range data.OpenPorts {
		switch port.Port {
		case 23, 3306, 5432:
			score += weightRiskyPort
			flags = append(flags, fmt.Sprintf("risky open port %d (%s)", port.Port, port.Service))
		}
	}

	if len(data.SecurityHeaders) == 0 {
		score += weightNoSecHeaders
		flags = append(flags, "no security headers present")
	}

	lowered := strings.ToLower(data.Domain)
	for _, token := range suspiciousTokens {
		if strings.Contains(lowered, token) {
			score += weightSuspiciousLabel
			flags = append(flags, "suspicious token in domain name: "+token)
			break
		}
	}

	if score > 100 {
		score = 100
	}

	return &ThreatAnalysis{
		RiskScore:      score,
		PhishingRisk:   phishingRisk(score),
		IsAnomaly:      score >= 50,
		RuleBasedFlags: flags,
	}, nil
}

func phishingRisk(score int) string {
	switch {
	case score >= 60:
		return "High"
	case score >= 30:
		return "Medium"
	default:
		return "Low"
	}
}
