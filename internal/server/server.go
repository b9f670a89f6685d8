// Package server assembles the registry, its persistence and the workflow
// manager from the application configuration.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"multislave-config/cmd/app"
	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/registry"
	"multislave-config/internal/features/fleet/service"
	"multislave-config/pkg/resource"
)

// Server holds the assembled components of one process
type Server struct {
	Config   *app.Config
	Registry *registry.Memory
	Manager  *service.Manager

	logger   *slog.Logger
	gatherer *prometheus.Registry
}

// Option configures New
type Option func(*options)

type options struct {
	kubeClient resource.KubeClientInterface
}

// WithKubeClient uses client instead of building one from the kubernetes
// configuration.
func WithKubeClient(client resource.KubeClientInterface) Option {
	return func(o *options) { o.kubeClient = client }
}

// New loads the registry from the configured backend and builds the
// manager around it.
func New(ctx context.Context, cfg *app.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := common.LoggerFromContext(ctx)
	ctx = common.ContextWithLogger(ctx, logger)

	var managerOpts []service.Option
	managerOpts = append(managerOpts, service.WithLogger(logger))

	var (
		reg *registry.Memory
		err error
	)
	switch cfg.Registry.Backend {
	case app.BackendMemory:
		reg = registry.NewMemory()
	case app.BackendFile:
		reg, err = registry.Load(ctx, registry.NewFileStore(cfg.Registry.FilePath))
	case app.BackendConfigMap:
		client := o.kubeClient
		if client == nil {
			clients, kerr := app.NewKubeClients(&cfg.Kubernetes, cfg.App.Component)
			if kerr != nil {
				return nil, kerr
			}
			client = clients.ClientSet
		}
		factory := resource.NewFactory(cfg, client)
		if recorder, ok := factory.Events(); ok {
			managerOpts = append(managerOpts, service.WithEvents(recorder))
		}
		reg, err = registry.Load(ctx, factory.Store())
	default:
		return nil, common.InvalidInputError("unknown registry backend %q", cfg.Registry.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load node registry: %w", err)
	}

	s := &Server{
		Config:   cfg,
		Registry: reg,
		logger:   logger,
	}

	if cfg.Metrics.Enabled {
		collector := service.NewMetricsCollector(cfg.Metrics.Namespace)
		s.gatherer = prometheus.NewRegistry()
		if err := collector.Register(s.gatherer); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		managerOpts = append(managerOpts, service.WithMetrics(collector))
	}

	s.Manager = service.NewManager(reg, reg, managerOpts...)
	logger.Debug("Node registry loaded", "backend", cfg.Registry.Backend, "nodes", len(reg.List()))
	return s, nil
}

// Gatherer returns the metrics registry, nil when metrics are disabled
func (s *Server) Gatherer() prometheus.Gatherer {
	if s.gatherer == nil {
		return nil
	}
	return s.gatherer
}

// Close writes the collected metrics to the configured textfile
func (s *Server) Close() error {
	path := s.Config.Metrics.TextfilePath
	if s.gatherer == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, s.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	s.logger.Debug("Metrics written", "path", path)
	return nil
}

// compile time check that the registry serves as both host interfaces
var (
	_ domain.Registry           = (*registry.Memory)(nil)
	_ domain.ComputerController = (*registry.Memory)(nil)
)
