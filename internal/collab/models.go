// Package collab implements the external analysis collaborators invoked by
// the scan orchestrator. Each output document is owned by its collaborator's
// contract and treated as opaque by the registry.
package collab

// Finding severity tiers used across reconnaissance output. SeverityHigh is
// the highest risk tier and feeds the compliance-audit penalty.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type VTVerdict struct {
	Malicious    int      `json:"malicious"`
	Suspicious   int      `json:"suspicious"`
	Reputation   int      `json:"reputation"`
	Categories   []string `json:"categories,omitempty"`
	LastAnalysis string   `json:"last_analysis,omitempty"`
}

type GSVerdict struct {
	ThreatType string `json:"threat_type"`
}

// AuthResult is the authenticity checker's verdict for a URL.
type AuthResult struct {
	IsGenuine       bool       `json:"is_genuine"`
	ConfidenceScore int        `json:"confidence_score"`
	VTResult        *VTVerdict `json:"vt_result,omitempty"`
	GSResult        *GSVerdict `json:"gs_result,omitempty"`
}

type WhoisData struct {
	Registrar   string `json:"registrar"`
	Registrant  string `json:"registrant"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Expires     string `json:"expires"`
	NameServers string `json:"name_servers"`
	Status      string `json:"status"`
	Source      string `json:"source"`
}

type DNSRecord struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type SSLData struct {
	Issuer       string `json:"issuer"`
	Subject      string `json:"subject"`
	Expiry       string `json:"expiry"`
	Valid        bool   `json:"valid"`
	SerialNumber string `json:"serial_number"`
	TLSVersion   string `json:"tls_version"`
}

type GeoData struct {
	IP        string  `json:"ip"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	ISP       string  `json:"isp"`
	Org       string  `json:"org"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PortInfo struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
}

// Finding is one reconnaissance observation with a risk tier.
type Finding struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Detail   string `json:"detail,omitempty"`
}

// ReconData aggregates everything the reconnaissance collector gathered for
// one domain. Individual lookups degrade to zero values on failure; the
// collector as a whole fails only when the domain does not resolve at all.
type ReconData struct {
	Domain          string            `json:"domain"`
	IP              string            `json:"ip"`
	Whois           *WhoisData        `json:"whois,omitempty"`
	DNS             []DNSRecord       `json:"dns"`
	SSL             *SSLData          `json:"ssl,omitempty"`
	Geolocation     *GeoData          `json:"geolocation,omitempty"`
	Subdomains      []string          `json:"subdomains"`
	OpenPorts       []PortInfo        `json:"open_ports"`
	Technologies    []string          `json:"technologies"`
	SecurityHeaders map[string]string `json:"security_headers"`
	Findings        []Finding         `json:"findings"`
	VirusTotal      *VTVerdict        `json:"virustotal,omitempty"`
	ProTip          string            `json:"pro_tip,omitempty"`
}

// ThreatAnalysis is the threat predictor's scoring document.
type ThreatAnalysis struct {
	RiskScore      int      `json:"risk_score"`
	PhishingRisk   string   `json:"phishing_risk"`
	IsAnomaly      bool     `json:"is_anomaly"`
	RuleBasedFlags []string `json:"rule_based_flags"`
}

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

type GraphEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Graph is the domain relationship graph document.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Web3Analysis covers decentralized naming and content signals for a domain.
type Web3Analysis struct {
	ENSCandidate string            `json:"ens_candidate,omitempty"`
	HasDNSLink   bool              `json:"has_dnslink"`
	DNSLink      string            `json:"dnslink,omitempty"`
	WalletTXT    map[string]string `json:"wallet_txt,omitempty"`
	IPFSGateway  bool              `json:"ipfs_gateway"`
	Notes        []string          `json:"notes,omitempty"`
}
