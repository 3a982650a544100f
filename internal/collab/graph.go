package collab

import (
	"context"
	"fmt"
	"strings"
)

// Mapper builds the domain relationship graph from reconnaissance data.
// Pure transformation, no network I/O.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

func (m *Mapper) Map(ctx context.Context, data *ReconData) (*Graph, error) {
	if data == nil {
		return nil, fmt.Errorf("graph mapping: reconnaissance data missing")
	}

	g := &Graph{}
	add := func(id, label, kind string) {
		for _, n := range g.Nodes {
			if n.ID == id {
				return
			}
		}
		g.Nodes = append(g.Nodes, GraphNode{ID: id, Label: label, Kind: kind})
	}
	link := func(from, to, relation string) {
		g.Edges = append(g.Edges, GraphEdge{From: from, To: to, Relation: relation})
	}

	root := "domain:" + data.Domain
	add(root, data.Domain, "domain")

	if data.IP != "" {
		id := "ip:" + data.IP
		add(id, data.IP, "ip")
		link(root, id, "resolves_to")
	}

	for _, rec := range data.DNS {
		switch rec.Type {
		case "NS":
			id := "ns:" + rec.Value
			add(id, rec.Value, "nameserver")
			link(root, id, "delegated_to")
		case "MX":
			host := rec.Value
			if fields := strings.Fields(rec.Value); len(fields) == 2 {
				host = fields[1]
			}
			id := "mx:" + host
			add(id, host, "mailserver")
			link(root, id, "mail_handled_by")
		case "CNAME":
			id := "cname:" + rec.Value
			add(id, rec.Value, "alias")
			link(root, id, "aliased_to")
		}
	}

	for _, sub := range data.Subdomains {
		id := "sub:" + sub
		add(id, sub, "subdomain")
		link(root, id, "parent_of")
	}

	if data.Whois != nil && data.Whois.Registrar != "" {
		id := "registrar:" + data.Whois.Registrar
		add(id, data.Whois.Registrar, "registrar")
		link(root, id, "registered_with")
	}
	if data.Geolocation != nil && data.Geolocation.ISP != "" {
		id := "isp:" + data.Geolocation.ISP
		add(id, data.Geolocation.ISP, "isp")
		link("ip:"+data.IP, id, "hosted_by")
	}

	return g, nil
}
