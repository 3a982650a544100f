package collab

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector gathers WHOIS, DNS, TLS, geolocation, subdomain, port and web
// fingerprint data for a domain. Individual lookups degrade to zero values;
// collection fails as a whole only when the domain does not resolve.
type Collector struct {
	client        *http.Client
	resolver      *net.Resolver
	geoEndpoint   string
	virusTotalKey string
	dialTimeout   time.Duration
}

func NewCollector(geoEndpoint, virusTotalKey string) *Collector {
	return &Collector{
		client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		resolver:      net.DefaultResolver,
		geoEndpoint:   strings.TrimRight(geoEndpoint, "/"),
		virusTotalKey: virusTotalKey,
		dialTimeout:   2 * time.Second,
	}
}

// Collect runs all lookups for the domain. Sub-lookups run concurrently and
// each writes only its own field of the result.
func (c *Collector) Collect(ctx context.Context, domain string) (*ReconData, error) {
	ips, err := c.resolver.LookupIP(ctx, "ip4", domain)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolving %s: no A records", domain)
	}

	data := &ReconData{
		Domain:          domain,
		IP:              ips[0].String(),
		SecurityHeaders: map[string]string{},
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { data.Whois = c.whois(ctx, domain) })
	run(func() { data.DNS = c.dnsRecords(ctx, domain) })
	run(func() { data.SSL = c.probeTLS(domain) })
	run(func() { data.Geolocation = c.geolocate(ctx, data.IP) })
	run(func() { data.Subdomains = c.subdomains(ctx, domain) })
	run(func() { data.OpenPorts = c.scanPorts(ctx, domain) })
	run(func() {
		headers, techs := c.webFingerprint(ctx, domain)
		data.SecurityHeaders = headers
		data.Technologies = techs
	})
	if c.virusTotalKey != "" {
		run(func() { data.VirusTotal, _ = vtDomainReport(ctx, c.client, c.virusTotalKey, domain) })
	}
	wg.Wait()

	data.Findings = deriveFindings(data)
	data.ProTip = proTipFor(domain)
	return data, nil
}

// --- WHOIS (port 43, IANA referral chase) ---

var whoisFields = map[string]func(*WhoisData, string){
	"Registrar:":               func(w *WhoisData, v string) { w.Registrar = v },
	"Registrant Organization:": func(w *WhoisData, v string) { w.Registrant = v },
	"Creation Date:":           func(w *WhoisData, v string) { w.Created = v },
	"Updated Date:":            func(w *WhoisData, v string) { w.Updated = v },
	"Registry Expiry Date:":    func(w *WhoisData, v string) { w.Expires = v },
	"Domain Status:":           func(w *WhoisData, v string) { w.Status = v },
}

func (c *Collector) whois(ctx context.Context, domain string) *WhoisData {
	raw, server, err := whoisQuery(ctx, "whois.iana.org", domain)
	if err != nil {
		return nil
	}
	if server != "" {
		if referred, _, err := whoisQuery(ctx, server, domain); err == nil {
			raw = referred
		}
	}

	w := &WhoisData{Source: server}
	if w.Source == "" {
		w.Source = "whois.iana.org"
	}
	var nameServers []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Name Server:") {
			ns := strings.TrimSpace(strings.TrimPrefix(line, "Name Server:"))
			if ns != "" {
				nameServers = append(nameServers, strings.ToLower(ns))
			}
			continue
		}
		for prefix, set := range whoisFields {
			if strings.HasPrefix(line, prefix) {
				if v := strings.TrimSpace(strings.TrimPrefix(line, prefix)); v != "" {
					set(w, v)
				}
			}
		}
	}
	sort.Strings(nameServers)
	w.NameServers = strings.Join(dedupe(nameServers), ", ")
	return w
}

// whoisQuery returns the raw response and any "refer:" server it names.
func whoisQuery(ctx context.Context, server, query string) (string, string, error) {
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", server+":43")
	if err != nil {
		return "", "", fmt.Errorf("dialing %s: %w", server, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := fmt.Fprintf(conn, "%s\r\n", query); err != nil {
		return "", "", fmt.Errorf("writing query: %w", err)
	}

	var b strings.Builder
	refer := ""
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		b.WriteString(line)
		b.WriteByte('\n')
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "refer:") {
			refer = strings.TrimSpace(strings.TrimPrefix(trimmed, "refer:"))
		}
	}
	return b.String(), refer, nil
}

// --- DNS ---

func (c *Collector) dnsRecords(ctx context.Context, domain string) []DNSRecord {
	var records []DNSRecord

	if ips, err := c.resolver.LookupIP(ctx, "ip", domain); err == nil {
		for _, ip := range ips {
			typ := "A"
			if ip.To4() == nil {
				typ = "AAAA"
			}
			records = append(records, DNSRecord{Type: typ, Value: ip.String()})
		}
	}
	if mxs, err := c.resolver.LookupMX(ctx, domain); err == nil {
		for _, mx := range mxs {
			records = append(records, DNSRecord{Type: "MX", Value: fmt.Sprintf("%d %s", mx.Pref, mx.Host)})
		}
	}
	if nss, err := c.resolver.LookupNS(ctx, domain); err == nil {
		for _, ns := range nss {
			records = append(records, DNSRecord{Type: "NS", Value: ns.Host})
		}
	}
	if txts, err := c.resolver.LookupTXT(ctx, domain); err == nil {
		for _, txt := range txts {
			records = append(records, DNSRecord{Type: "TXT", Value: txt})
		}
	}
	if cname, err := c.resolver.LookupCNAME(ctx, domain); err == nil {
		if trimmed := strings.TrimSuffix(cname, "."); trimmed != domain {
			records = append(records, DNSRecord{Type: "CNAME", Value: cname})
		}
	}
	return records
}

// --- TLS certificate ---

func (c *Collector) probeTLS(domain string) *SSLData {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", domain+":443", &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         domain,
	})
	if err != nil {
		return nil
	}
	defer conn.Close()

	state := conn.ConnectionState()
	ssl := &SSLData{TLSVersion: tlsVersionName(state.Version)}

	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		now := time.Now()
		ssl.Issuer = cert.Issuer.CommonName
		ssl.Subject = cert.Subject.CommonName
		ssl.Expiry = cert.NotAfter.Format(time.RFC3339)
		ssl.SerialNumber = cert.SerialNumber.Text(16)
		ssl.Valid = now.After(cert.NotBefore) && now.Before(cert.NotAfter) && cert.VerifyHostname(domain) == nil
	}
	return ssl
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", v)
	}
}

// --- Geolocation ---

func (c *Collector) geolocate(ctx context.Context, ip string) *GeoData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geoEndpoint+"/"+ip, nil)
	if err != nil {
		return nil
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		Status     string  `json:"status"`
		Country    string  `json:"country"`
		City       string  `json:"city"`
		RegionName string  `json:"regionName"`
		ISP        string  `json:"isp"`
		Org        string  `json:"org"`
		Timezone   string  `json:"timezone"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		Query      string  `json:"query"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&payload); err != nil {
		return nil
	}
	if payload.Status != "success" {
		return nil
	}
	return &GeoData{
		IP:        payload.Query,
		Country:   payload.Country,
		City:      payload.City,
		Region:    payload.RegionName,
		ISP:       payload.ISP,
		Org:       payload.Org,
		Timezone:  payload.Timezone,
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
	}
}

// --- Subdomains (certificate transparency) ---

func (c *Collector) subdomains(ctx context.Context, domain string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://crt.sh/?q=%25."+domain+"&output=json", nil)
	if err != nil {
		return nil
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var entries []struct {
		NameValue string `json:"name_value"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&entries); err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var subs []string
	for _, e := range entries {
		for _, name := range strings.Split(e.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || name == domain || strings.HasPrefix(name, "*.") {
				continue
			}
			if !strings.HasSuffix(name, "."+domain) {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			subs = append(subs, name)
			if len(subs) >= 25 {
				sort.Strings(subs)
				return subs
			}
		}
	}
	sort.Strings(subs)
	return subs
}

// --- Port probe ---

var commonPorts = []PortInfo{
	{21, "ftp"}, {22, "ssh"}, {23, "telnet"}, {25, "smtp"}, {80, "http"},
	{110, "pop3"}, {143, "imap"}, {443, "https"}, {3306, "mysql"},
	{5432, "postgresql"}, {8080, "http-alt"},
}

func (c *Collector) scanPorts(ctx context.Context, domain string) []PortInfo {
	var mu sync.Mutex
	var open []PortInfo
	var wg sync.WaitGroup

	d := net.Dialer{Timeout: c.dialTimeout}
	for _, p := range commonPorts {
		wg.Add(1)
		go func(p PortInfo) {
			defer wg.Done()
			conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", domain, p.Port))
			if err != nil {
				return
			}
			conn.Close()
			mu.Lock()
			open = append(open, p)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })
	return open
}

// --- Web fingerprint ---

// securityHeaderNames are the response headers recorded for the compliance
// audit and the report.
var securityHeaderNames = []string{
	"Content-Security-Policy",
	"X-Frame-Options",
	"Strict-Transport-Security",
	"X-Content-Type-Options",
	"X-XSS-Protection",
	"Referrer-Policy",
	"Permissions-Policy",
}

func (c *Collector) webFingerprint(ctx context.Context, domain string) (map[string]string, []string) {
	headers := map[string]string{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+domain, nil)
	if err != nil {
		return headers, nil
	}
	req.Header.Set("User-Agent", "domainscope/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return headers, nil
	}
	defer resp.Body.Close()

	for _, name := range securityHeaderNames {
		if v := resp.Header.Get(name); v != "" {
			headers[name] = v
		}
	}

	var techs []string
	if v := resp.Header.Get("Server"); v != "" {
		techs = append(techs, v)
	}
	if v := resp.Header.Get("X-Powered-By"); v != "" {
		techs = append(techs, v)
	}
	if v := resp.Header.Get("X-Generator"); v != "" {
		techs = append(techs, v)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	lower := strings.ToLower(string(body))
	for marker, tech := range map[string]string{
		"wp-content":       "WordPress",
		"drupal":           "Drupal",
		"shopify":          "Shopify",
		"react":            "React",
		"cloudflare":       "Cloudflare",
		"googletagmanager": "Google Tag Manager",
	} {
		if strings.Contains(lower, marker) {
			techs = append(techs, tech)
		}
	}
	return headers, dedupe(techs)
}

// --- Findings, tips ---

// deriveFindings flags risky observations. SeverityHigh entries feed the
// compliance-audit penalty downstream.
func deriveFindings(data *ReconData) []Finding {
	var findings []Finding

	for _, p := range data.OpenPorts {
		switch p.Port {
		case 23:
			findings = append(findings, Finding{
				Name:     "telnet exposed",
				Severity: SeverityHigh,
				Detail:   "port 23 accepts connections",
			})
		case 3306, 5432:
			findings = append(findings, Finding{
				Name:     fmt.Sprintf("database port %d exposed", p.Port),
				Severity: SeverityHigh,
				Detail:   fmt.Sprintf("%s reachable from the internet", p.Service),
			})
		case 21:
			findings = append(findings, Finding{
				Name:     "ftp exposed",
				Severity: SeverityMedium,
				Detail:   "port 21 accepts connections",
			})
		}
	}

	if data.SSL != nil && !data.SSL.Valid {
		findings = append(findings, Finding{
			Name:     "invalid certificate",
			Severity: SeverityHigh,
			Detail:   "TLS certificate failed validation",
		})
	}
	if data.SSL == nil {
		findings = append(findings, Finding{
			Name:     "no https",
			Severity: SeverityMedium,
			Detail:   "no TLS listener on port 443",
		})
	}

	for _, tech := range data.Technologies {
		if strings.ContainsAny(tech, "0123456789") && strings.Contains(tech, "/") {
			findings = append(findings, Finding{
				Name:     "server version disclosure",
				Severity: SeverityLow,
				Detail:   tech,
			})
			break
		}
	}

	if data.VirusTotal != nil && data.VirusTotal.Malicious > 0 {
		findings = append(findings, Finding{
			Name:     "flagged by threat intel",
			Severity: SeverityHigh,
			Detail:   fmt.Sprintf("%d engines report malicious", data.VirusTotal.Malicious),
		})
	}
	return findings
}

var proTips = []string{
	"Enable DNSSEC to protect against DNS spoofing attacks.",
	"Set a Content-Security-Policy header to limit injection blast radius.",
	"Rotate TLS certificates well before expiry and monitor the dates.",
	"Restrict database ports to internal networks or a VPN.",
	"Review certificate transparency logs for unexpected subdomains.",
	"Add Strict-Transport-Security with a long max-age once HTTPS is stable.",
}

func proTipFor(domain string) string {
	h := fnv.New32a()
	h.Write([]byte(domain))
	return proTips[int(h.Sum32())%len(proTips)]
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
