package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/rshaw/domainscope/internal/collab"
	"github.com/rshaw/domainscope/internal/config"
	"github.com/rshaw/domainscope/internal/database"
	"github.com/rshaw/domainscope/internal/monitor"
	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
	"github.com/rshaw/domainscope/internal/scan"
	"github.com/rshaw/domainscope/internal/server"
	"github.com/rshaw/domainscope/internal/throttle"
	"github.com/rshaw/domainscope/internal/workflow"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(database.Options{Path: cfg.Database.Path, BusyTimeout: cfg.DatabaseBusyTimeout()})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	reg := registry.New(cfg.Retention())
	defer reg.Close()

	hub := notify.NewHub(cfg.Scan.SubscriberBuffer)
	limiter := throttle.New(cfg.Throttle.MaxRequests, cfg.ThrottleWindow())

	checker := collab.NewChecker(cfg.Collaborators.VirusTotalKey, cfg.Collaborators.SafeBrowsingKey)
	recon := collab.NewCollector(cfg.Collaborators.GeoEndpoint, cfg.Collaborators.VirusTotalKey)
	threat := collab.NewPredictor()
	graph := collab.NewMapper()
	web3 := collab.NewWeb3Scanner()

	orchestrator := scan.NewOrchestrator(reg, hub, checker, recon, threat, graph, web3, cfg.StageTimeout())

	// Catalog workflows rerun reconnaissance and scoring for the domain
	// they are executed against.
	provider := func(ctx context.Context, domain string) (*collab.ReconData, *collab.ThreatAnalysis, error) {
		data, err := recon.Collect(ctx, domain)
		if err != nil {
			return nil, nil, err
		}
		analysis, err := threat.Predict(ctx, data)
		if err != nil {
			return nil, nil, err
		}
		return data, analysis, nil
	}
	catalog := workflow.NewCatalog(provider, db)

	monitors := monitor.NewService(db, recon, threat, cfg.MonitorInterval())
	monitors.Start()
	defer monitors.Stop()

	srv := server.New(cfg, db, reg, hub, orchestrator, limiter, catalog, monitors)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
