package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rshaw/domainscope/internal/scan"
)

// GenerateMarkdown renders the scan result as a markdown report.
func (g *Generator) GenerateMarkdown(result *scan.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Domain Reconnaissance Report: %s\n\n", result.Domain))
	b.WriteString(fmt.Sprintf("**Generated:** %s  \n\n", time.Now().Format("January 2, 2006 15:04:05 MST")))

	b.WriteString("## Authenticity Assessment\n\n")
	if auth := result.Authenticity; auth != nil {
		if auth.IsGenuine {
			b.WriteString("**Status:** Domain verified as genuine  \n")
		} else {
			b.WriteString("**Status:** Potential security risk detected  \n")
			if result.OfficialLink != nil {
				b.WriteString(fmt.Sprintf("**Official Link:** %s  \n", *result.OfficialLink))
			}
		}
		if auth.VTResult != nil {
			b.WriteString(fmt.Sprintf("**VirusTotal:** %d malicious, %d suspicious  \n",
				auth.VTResult.Malicious, auth.VTResult.Suspicious))
		}
		b.WriteString(fmt.Sprintf("**Confidence Score:** %d/100  \n\n", auth.ConfidenceScore))
	} else {
		b.WriteString("No authenticity data collected.\n\n")
	}

	recon := result.Reconnaissance

	b.WriteString("## WHOIS Information\n\n")
	if recon != nil && recon.Whois != nil {
		w := recon.Whois
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, row := range [][2]string{
			{"Registrar", w.Registrar},
			{"Created", w.Created},
			{"Updated", w.Updated},
			{"Expires", w.Expires},
			{"Status", w.Status},
			{"Source", w.Source},
		} {
			value := row[1]
			if value == "" {
				value = "N/A"
			}
			b.WriteString(fmt.Sprintf("| %s | %s |\n", row[0], value))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No WHOIS data collected.\n\n")
	}

	b.WriteString("## DNS Records\n\n")
	if recon != nil && len(recon.DNS) > 0 {
		b.WriteString("| Type | Value |\n|---|---|\n")
		for _, rec := range recon.DNS {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", rec.Type, rec.Value))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No DNS records found.\n\n")
	}

	b.WriteString("## SSL Certificate\n\n")
	if recon != nil && recon.SSL != nil {
		s := recon.SSL
		b.WriteString(fmt.Sprintf("**Issuer:** %s  \n**Subject:** %s  \n**Expiry:** %s  \n**TLS Version:** %s  \n**Valid:** %t  \n\n",
			s.Issuer, s.Subject, s.Expiry, s.TLSVersion, s.Valid))
	} else {
		b.WriteString("No certificate observed.\n\n")
	}

	b.WriteString("## Threat Intelligence\n\n")
	if threat := result.ThreatAnalysis; threat != nil {
		b.WriteString(fmt.Sprintf("**Risk Score:** %d/100  \n**Phishing Risk:** %s  \n**Anomaly:** %t  \n\n",
			threat.RiskScore, threat.PhishingRisk, threat.IsAnomaly))
		for _, flag := range threat.RuleBasedFlags {
			b.WriteString(fmt.Sprintf("- %s\n", flag))
		}
		if len(threat.RuleBasedFlags) > 0 {
			b.WriteString("\n")
		}
	} else {
		b.WriteString("No threat analysis available.\n\n")
	}

	b.WriteString("## Network Exposure\n\n")
	if recon != nil && len(recon.OpenPorts) > 0 {
		for _, p := range recon.OpenPorts {
			b.WriteString(fmt.Sprintf("- %d (%s)\n", p.Port, p.Service))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No open ports observed.\n\n")
	}

	if workflows := result.WorkflowResults; workflows != nil {
		b.WriteString("## Analysis Workflows\n\n")
		if hunter := workflows.ThreatHunter; hunter != nil {
			b.WriteString(fmt.Sprintf("### Threat Hunter\n\n%s\n\n", hunter.Summary))
		}
		if audit := workflows.ComplianceAudit; audit != nil {
			b.WriteString(fmt.Sprintf("### Compliance Audit\n\n**Score:** %d/100  \n**High-risk findings:** %d  \n\n",
				audit.ComplianceScore, audit.HighRiskCount))
			for _, issue := range audit.Issues {
				b.WriteString(fmt.Sprintf("- %s\n", issue))
			}
			if len(audit.Issues) > 0 {
				b.WriteString("\n")
			}
		}
	}

	if recon != nil && recon.ProTip != "" {
		b.WriteString(fmt.Sprintf("## Pro Tip\n\n%s\n", recon.ProTip))
	}

	return b.String()
}
