package scan

import (
	"context"

	"github.com/rshaw/domainscope/internal/collab"
)

// Collaborator contracts consumed by the orchestrator. The concrete network
// implementations live in internal/collab; tests substitute stubs.

type AuthenticityChecker interface {
	CheckAuthenticity(ctx context.Context, url string) (*collab.AuthResult, error)
	// OfficialLink is consulted only when a domain is judged non-genuine.
	OfficialLink(ctx context.Context, domain string) (string, error)
}

type ReconCollector interface {
	Collect(ctx context.Context, domain string) (*collab.ReconData, error)
}

type ThreatPredictor interface {
	Predict(ctx context.Context, data *collab.ReconData) (*collab.ThreatAnalysis, error)
}

type GraphMapper interface {
	Map(ctx context.Context, data *collab.ReconData) (*collab.Graph, error)
}

type Web3Scanner interface {
	Scan(ctx context.Context, domain string) (*collab.Web3Analysis, error)
}

// Result is the aggregated scan document stored in the registry on
// completion and consumed by the report assembler.
type Result struct {
	Domain          string                 `json:"domain"`
	Authenticity    *collab.AuthResult     `json:"authenticity"`
	Reconnaissance  *collab.ReconData      `json:"reconnaissance"`
	ThreatAnalysis  *collab.ThreatAnalysis `json:"threat_analysis"`
	GraphData       *collab.Graph          `json:"graph_data"`
	Web3Analysis    *collab.Web3Analysis   `json:"web3_analysis"`
	WorkflowResults *WorkflowResults       `json:"workflow_results"`
	OfficialLink    *string                `json:"official_link"`
}
