package main

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/config"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
	"github.com/dd0wney/ranroutes/pkg/topology"
)

// session carries what every command derives from the configuration
type session struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	started time.Time
}

func newSession(configPath string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewStderrLogger(cfg.LogLevel())
	logging.SetDefaultLogger(logger)
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
		started: time.Now(),
	}, nil
}

// build loads the topology and enumerates the catalog from the configured
// origin, honouring the build timeout
func (s *session) build(ctx context.Context) (*catalog.Catalog, *topology.Topology, error) {
	tc := s.cfg.Topology
	if tc.NodesFile == "" || tc.LinksFile == "" {
		return nil, nil, errors.New("topology.nodes_file and topology.links_file are required")
	}
	topo, err := topology.LoadFiles(tc.NodesFile, tc.LinksFile, topology.WithLogger(s.logger))
	if err != nil {
		return nil, nil, err
	}

	b, err := catalog.NewBuilder(topo, s.cfg.BuilderConfig(),
		catalog.WithLogger(s.logger), catalog.WithMetrics(s.metrics))
	if err != nil {
		return nil, nil, err
	}

	if s.cfg.Build.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Build.Timeout)
		defer cancel()
	}
	cat, err := b.Build(ctx, graph.NodeID(tc.Origin))
	if err != nil {
		return nil, nil, err
	}
	return cat, topo, nil
}

// flushMetrics writes the textfile if one is configured
func (s *session) flushMetrics() {
	path := s.cfg.Metrics.File
	if path == "" {
		return
	}
	s.metrics.UpdateSystemMetrics(s.started)
	if err := s.metrics.WriteTextfile(path); err != nil {
		s.logger.Warn("failed to write metrics", logging.File(path), logging.Error(err))
	}
}
