package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Checker decides whether a URL points at a genuine site, backed by the
// VirusTotal and Google Safe Browsing APIs when keys are configured and by
// a conservative local heuristic otherwise.
type Checker struct {
	client          *http.Client
	virusTotalKey   string
	safeBrowsingKey string
}

func NewChecker(virusTotalKey, safeBrowsingKey string) *Checker {
	return &Checker{
		client:          &http.Client{Timeout: 15 * time.Second},
		virusTotalKey:   virusTotalKey,
		safeBrowsingKey: safeBrowsingKey,
	}
}

// CheckAuthenticity scores a URL. A domain is treated as genuine unless a
// threat-intel feed flags it; absent feeds lower confidence, not the verdict.
func (c *Checker) CheckAuthenticity(ctx context.Context, rawURL string) (*AuthResult, error) {
	domain := hostOf(rawURL)
	if domain == "" {
		return nil, fmt.Errorf("authenticity check: no host in %q", rawURL)
	}

	result := &AuthResult{IsGenuine: true, ConfidenceScore: 100}

	if c.virusTotalKey != "" {
		vt, err := vtDomainReport(ctx, c.client, c.virusTotalKey, domain)
		if err != nil {
			return nil, fmt.Errorf("virustotal lookup: %w", err)
		}
		result.VTResult = vt
		if vt.Malicious > 0 {
			result.IsGenuine = false
			result.ConfidenceScore -= 40 + min(vt.Malicious*5, 40)
		} else if vt.Suspicious > 0 {
			result.ConfidenceScore -= min(vt.Suspicious*10, 30)
		}
	} else {
		result.ConfidenceScore -= 15
	}

	if c.safeBrowsingKey != "" {
		gs, err := c.safeBrowsing(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("safe browsing lookup: %w", err)
		}
		if gs != nil {
			result.GSResult = gs
			result.IsGenuine = false
			result.ConfidenceScore -= 40
		}
	} else {
		result.ConfidenceScore -= 10
	}

	if result.ConfidenceScore < 0 {
		result.ConfidenceScore = 0
	}
	return result, nil
}

// officialSites maps commonly-imitated brand tokens to their canonical URL.
// Consulted only for domains already judged non-genuine.
var officialSites = map[string]string{
	"paypal":    "https://www.paypal.com",
	"apple":     "https://www.apple.com",
	"google":    "https://www.google.com",
	"microsoft": "https://www.microsoft.com",
	"amazon":    "https://www.amazon.com",
	"netflix":   "https://www.netflix.com",
	"facebook":  "https://www.facebook.com",
	"instagram": "https://www.instagram.com",
	"whatsapp":  "https://www.whatsapp.com",
	"binance":   "https://www.binance.com",
	"coinbase":  "https://www.coinbase.com",
	"metamask":  "https://metamask.io",
}

// OfficialLink suggests the legitimate site a suspicious domain appears to
// imitate. Empty string when no suggestion exists.
func (c *Checker) OfficialLink(ctx context.Context, domain string) (string, error) {
	lowered := strings.ToLower(domain)
	for brand, link := range officialSites {
		if strings.Contains(lowered, brand) && !strings.HasSuffix(lowered, brand+".com") {
			return link, nil
		}
	}
	return "", nil
}

// vtDomainReport fetches the VirusTotal v3 domain report. Shared by the
// authenticity checker and the reconnaissance collector.
func vtDomainReport(ctx context.Context, client *http.Client, key, domain string) (*VTVerdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.virustotal.com/api/v3/domains/"+domain, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-apikey", key)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &VTVerdict{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Data struct {
			Attributes struct {
				Reputation        int `json:"reputation"`
				LastAnalysisStats struct {
					Malicious  int `json:"malicious"`
					Suspicious int `json:"suspicious"`
				} `json:"last_analysis_stats"`
				LastAnalysisDate int64             `json:"last_analysis_date"`
				Categories       map[string]string `json:"categories"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	attrs := payload.Data.Attributes
	verdict := &VTVerdict{
		Malicious:  attrs.LastAnalysisStats.Malicious,
		Suspicious: attrs.LastAnalysisStats.Suspicious,
		Reputation: attrs.Reputation,
	}
	for _, cat := range attrs.Categories {
		verdict.Categories = append(verdict.Categories, cat)
	}
	if attrs.LastAnalysisDate > 0 {
		verdict.LastAnalysis = time.Unix(attrs.LastAnalysisDate, 0).UTC().Format(time.RFC3339)
	}
	return verdict, nil
}

func (c *Checker) safeBrowsing(ctx context.Context, rawURL string) (*GSVerdict, error) {
	body := fmt.Sprintf(`{
		"client": {"clientId": "domainscope", "clientVersion": "1.0"},
		"threatInfo": {
			"threatTypes": ["MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"],
			"platformTypes": ["ANY_PLATFORM"],
			"threatEntryTypes": ["URL"],
			"threatEntries": [{"url": %q}]
		}
	}`, rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://safebrowsing.googleapis.com/v4/threatMatches:find?key="+c.safeBrowsingKey,
		strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Matches []struct {
			ThreatType string `json:"threatType"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(payload.Matches) == 0 {
		return nil, nil
	}
	return &GSVerdict{ThreatType: payload.Matches[0].ThreatType}, nil
}

func hostOf(rawURL string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return s
}
