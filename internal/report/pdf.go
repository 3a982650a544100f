// Package report renders completed scan results as downloadable documents.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/rshaw/domainscope/internal/collab"
	"github.com/rshaw/domainscope/internal/scan"
)

// Generator renders scan results to PDF and markdown. Files land in
// reportsDir when persisted.
type Generator struct {
	reportsDir string
}

func NewGenerator(reportsDir string) *Generator {
	return &Generator{reportsDir: reportsDir}
}

// PDFFilename is the download name for a domain's report.
func PDFFilename(domain string) string {
	return domain + "_reconnaissance_report.pdf"
}

// GeneratePDF renders the full report into memory.
func (g *Generator) GeneratePDF(result *scan.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g.addTitle(pdf, result.Domain)
	g.addAuthenticity(pdf, result)
	g.addWhois(pdf, result.Reconnaissance)
	g.addDNS(pdf, result.Reconnaissance)
	g.addSSL(pdf, result.Reconnaissance)
	g.addGeolocation(pdf, result.Reconnaissance)
	g.addThreat(pdf, result.ThreatAnalysis)
	g.addNetwork(pdf, result.Reconnaissance)
	g.addSecurityHeaders(pdf, result.Reconnaissance)
	g.addWorkflows(pdf, result.WorkflowResults)
	g.addProTip(pdf, result.Reconnaissance)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders the report and stores it under the reports directory,
// returning the file path.
func (g *Generator) WritePDF(result *scan.Result) (string, error) {
	data, err := g.GeneratePDF(result)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}
	path := filepath.Join(g.reportsDir, PDFFilename(result.Domain))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func (g *Generator) addTitle(pdf *gofpdf.Fpdf, domain string) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 14, "Domain Reconnaissance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, domain, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(6)
}

func (g *Generator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(30, 41, 59)
	x, y := pdf.GetXY()
	pdf.Line(x, y, x+60, y)
	pdf.Ln(3)
}

func (g *Generator) addKeyValue(pdf *gofpdf.Fpdf, key, value string) {
	if value == "" {
		value = "N/A"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(45, 6, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func (g *Generator) addAuthenticity(pdf *gofpdf.Fpdf, result *scan.Result) {
	g.addSectionHeader(pdf, "Authenticity Assessment")
	auth := result.Authenticity
	if auth == nil {
		g.addParagraph(pdf, "No authenticity data collected.")
		return
	}

	if auth.IsGenuine {
		pdf.SetTextColor(22, 128, 61)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Status: Domain verified as genuine", "", 1, "L", false, 0, "")
	} else {
		pdf.SetTextColor(220, 38, 38)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Status: Potential security risk detected", "", 1, "L", false, 0, "")
		if result.OfficialLink != nil {
			g.addKeyValue(pdf, "Official Link", *result.OfficialLink)
		}
	}

	if auth.VTResult != nil {
		g.addKeyValue(pdf, "VirusTotal",
			fmt.Sprintf("%d malicious, %d suspicious detections", auth.VTResult.Malicious, auth.VTResult.Suspicious))
	}
	if auth.GSResult != nil && auth.GSResult.ThreatType != "" {
		g.addKeyValue(pdf, "Safe Browsing", auth.GSResult.ThreatType)
	}
	g.addKeyValue(pdf, "Confidence Score", fmt.Sprintf("%d/100", auth.ConfidenceScore))
	pdf.Ln(4)
}

func (g *Generator) addWhois(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "WHOIS Information")
	if data == nil || data.Whois == nil {
		g.addParagraph(pdf, "No WHOIS data collected.")
		return
	}
	w := data.Whois
	g.addKeyValue(pdf, "Registrar", w.Registrar)
	g.addKeyValue(pdf, "Created", w.Created)
	g.addKeyValue(pdf, "Updated", w.Updated)
	g.addKeyValue(pdf, "Expires", w.Expires)
	g.addKeyValue(pdf, "Status", w.Status)
	g.addKeyValue(pdf, "Source", w.Source)
	pdf.Ln(4)
}

func (g *Generator) addDNS(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "DNS Records")
	if data == nil || len(data.DNS) == 0 {
		g.addParagraph(pdf, "No DNS records found.")
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(25, 7, "Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(145, 7, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, rec := range data.DNS {
		value := rec.Value
		if len(value) > 90 {
			value = value[:90] + "..."
		}
		pdf.CellFormat(25, 6, rec.Type, "1", 0, "C", false, 0, "")
		pdf.CellFormat(145, 6, value, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (g *Generator) addSSL(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "SSL Certificate")
	if data == nil || data.SSL == nil {
		g.addParagraph(pdf, "No certificate observed.")
		return
	}
	s := data.SSL
	g.addKeyValue(pdf, "Issuer", s.Issuer)
	g.addKeyValue(pdf, "Subject", s.Subject)
	g.addKeyValue(pdf, "Expiry", s.Expiry)
	g.addKeyValue(pdf, "TLS Version", s.TLSVersion)
	g.addKeyValue(pdf, "Valid", fmt.Sprintf("%t", s.Valid))
	pdf.Ln(4)
}

func (g *Generator) addGeolocation(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "Geolocation")
	if data == nil || data.Geolocation == nil {
		g.addParagraph(pdf, "No geolocation data collected.")
		return
	}
	geo := data.Geolocation
	g.addKeyValue(pdf, "IP Address", data.IP)
	g.addKeyValue(pdf, "Country", geo.Country)
	g.addKeyValue(pdf, "Region", geo.Region)
	g.addKeyValue(pdf, "City", geo.City)
	g.addKeyValue(pdf, "ISP", geo.ISP)
	g.addKeyValue(pdf, "Organization", geo.Org)
	pdf.Ln(4)
}

func (g *Generator) addThreat(pdf *gofpdf.Fpdf, analysis *collab.ThreatAnalysis) {
	g.addSectionHeader(pdf, "Threat Intelligence")
	if analysis == nil {
		g.addParagraph(pdf, "No threat analysis available.")
		return
	}

	g.addKeyValue(pdf, "Risk Score", fmt.Sprintf("%d/100", analysis.RiskScore))
	g.addKeyValue(pdf, "Phishing Risk", analysis.PhishingRisk)
	g.addKeyValue(pdf, "Anomaly", fmt.Sprintf("%t", analysis.IsAnomaly))
	if len(analysis.RuleBasedFlags) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 6, "Indicators:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, flag := range analysis.RuleBasedFlags {
			pdf.CellFormat(0, 6, "  - "+flag, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)
}

func (g *Generator) addNetwork(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "Network Exposure")
	if data == nil {
		g.addParagraph(pdf, "No network data collected.")
		return
	}

	if len(data.OpenPorts) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 6, "Open Ports:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range data.OpenPorts {
			pdf.CellFormat(0, 6, fmt.Sprintf("  %d (%s)", p.Port, p.Service), "", 1, "L", false, 0, "")
		}
	} else {
		g.addParagraph(pdf, "No open ports observed.")
	}

	if len(data.Technologies) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 6, "Technologies:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, tech := range data.Technologies {
			pdf.CellFormat(0, 6, "  - "+tech, "", 1, "L", false, 0, "")
		}
	}
	if len(data.Subdomains) > 0 {
		g.addKeyValue(pdf, "Subdomains", fmt.Sprintf("%d discovered", len(data.Subdomains)))
	}
	pdf.Ln(4)
}

func (g *Generator) addSecurityHeaders(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	g.addSectionHeader(pdf, "Security Headers")
	if data == nil || len(data.SecurityHeaders) == 0 {
		g.addParagraph(pdf, "No security headers observed.")
		return
	}
	for name, value := range data.SecurityHeaders {
		if len(value) > 80 {
			value = value[:80] + "..."
		}
		g.addKeyValue(pdf, name, value)
	}
	pdf.Ln(4)
}

func (g *Generator) addWorkflows(pdf *gofpdf.Fpdf, results *scan.WorkflowResults) {
	g.addSectionHeader(pdf, "Analysis Workflows")
	if results == nil {
		g.addParagraph(pdf, "No workflow results available.")
		return
	}

	if hunter := results.ThreatHunter; hunter != nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "Threat Hunter", "", 1, "L", false, 0, "")
		g.addKeyValue(pdf, "Risk Score", fmt.Sprintf("%d", hunter.RiskScore))
		g.addKeyValue(pdf, "Phishing Risk", hunter.PhishingRisk)
		g.addParagraph(pdf, hunter.Summary)
	}

	if audit := results.ComplianceAudit; audit != nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "Compliance Audit", "", 1, "L", false, 0, "")
		g.addKeyValue(pdf, "Compliance Score", fmt.Sprintf("%d/100", audit.ComplianceScore))
		g.addKeyValue(pdf, "High-Risk Findings", fmt.Sprintf("%d", audit.HighRiskCount))
		for _, issue := range audit.Issues {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(60, 60, 60)
			pdf.CellFormat(0, 6, "  - "+issue, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)
}

func (g *Generator) addProTip(pdf *gofpdf.Fpdf, data *collab.ReconData) {
	if data == nil || data.ProTip == "" {
		return
	}
	g.addSectionHeader(pdf, "Pro Tip")
	g.addParagraph(pdf, data.ProTip)
}

func (g *Generator) addParagraph(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 6, text, "", "L", false)
	pdf.Ln(2)
}
