package collab

import (
	"context"
	"net"
	"strings"
	"time"
)

// Web3Scanner inspects a domain for decentralized naming and content
// signals: dnslink TXT records, wallet-address TXT records, IPFS gateway
// behavior and the matching ENS candidate name.
type Web3Scanner struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewWeb3Scanner() *Web3Scanner {
	return &Web3Scanner{
		resolver: net.DefaultResolver,
		timeout:  10 * time.Second,
	}
}

// walletTXTPrefixes are TXT-record conventions used to publish crypto
// wallet addresses under a domain.
var walletTXTPrefixes = map[string]string{
	"oa1:btc": "bitcoin",
	"oa1:eth": "ethereum",
	"eth=":    "ethereum",
	"btc=":    "bitcoin",
}

func (s *Web3Scanner) Scan(ctx context.Context, domain string) (*Web3Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	analysis := &Web3Analysis{
		ENSCandidate: ensCandidate(domain),
		WalletTXT:    map[string]string{},
	}

	// dnslink convention: TXT on _dnslink.<domain> with "dnslink=/ipfs/...".
	if txts, err := s.resolver.LookupTXT(ctx, "_dnslink."+domain); err == nil {
		for _, txt := range txts {
			if strings.HasPrefix(txt, "dnslink=") {
				analysis.HasDNSLink = true
				analysis.DNSLink = strings.TrimPrefix(txt, "dnslink=")
				break
			}
		}
	}

	if txts, err := s.resolver.LookupTXT(ctx, domain); err == nil {
		for _, txt := range txts {
			lowered := strings.ToLower(txt)
			for prefix, chain := range walletTXTPrefixes {
				if strings.HasPrefix(lowered, prefix) {
					analysis.WalletTXT[chain] = txt
				}
			}
			if strings.Contains(lowered, "ipfs") {
				analysis.IPFSGateway = true
			}
		}
	}

	if analysis.HasDNSLink {
		analysis.Notes = append(analysis.Notes, "content is published via IPFS dnslink")
	}
	if len(analysis.WalletTXT) > 0 {
		analysis.Notes = append(analysis.Notes, "wallet addresses advertised in DNS; verify before paying")
	}
	if len(analysis.Notes) == 0 {
		analysis.Notes = append(analysis.Notes, "no decentralized naming signals detected")
	}
	return analysis, nil
}

// ensCandidate maps example.com to the ENS name example.eth.
func ensCandidate(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return ""
	}
	return labels[len(labels)-2] + ".eth"
}
