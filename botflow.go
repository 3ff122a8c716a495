// Package botflow provides a top-level convenience entry point for wiring the
// chatbot workflow engine with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/botflow"
//
//	engine := botflow.New(botflow.WithLogger(logger))
//	engine.Workflows().Register(wf)
//	engine.RegisterRule(dispatch.NewFallbackRule("fallback", wf.ID))
//	results, err := engine.Dispatch(ctx, adapter, msg)
//
// This is a thin wrapper assembling the registries, the type system, and the
// dispatcher; every part is reachable for callers that need finer control.
package botflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/botflow/config"
	"github.com/BaSui01/botflow/dispatch"
	"github.com/BaSui01/botflow/im"
	"github.com/BaSui01/botflow/internal/metrics"
	"github.com/BaSui01/botflow/types"
	"github.com/BaSui01/botflow/workflow"
)

// Option configures the engine created by [New].
type Option func(*options)

type options struct {
	cfg              *config.Config
	logger           *zap.Logger
	metricsNamespace string
	tenants          dispatch.TenantResolver
}

// WithConfig applies a loaded process configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithLogger sets a custom zap logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsNamespace sets the prometheus namespace for the engine counters.
// Empty disables metrics collection.
func WithMetricsNamespace(namespace string) Option {
	return func(o *options) { o.metricsNamespace = namespace }
}

// WithTenantResolver sets the tenant membership lookup used by the dispatcher.
func WithTenantResolver(resolver dispatch.TenantResolver) Option {
	return func(o *options) { o.tenants = resolver }
}

// Engine bundles the workflow registry, rule registry, type system, adapter
// manager, and dispatcher into one assembled unit.
type Engine struct {
	workflows  *workflow.Registry
	rules      *dispatch.RuleRegistry
	typeSys    *workflow.TypeSystem
	adapters   *im.Manager
	dispatcher *dispatch.Dispatcher
	collector  *metrics.Collector
	logger     *zap.Logger
}

// New assembles an engine. Without options it uses the default configuration
// and a no-op logger.
func New(opts ...Option) *Engine {
	o := &options{
		cfg:    config.DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	var collector *metrics.Collector
	if o.metricsNamespace != "" {
		collector = metrics.NewCollector(o.metricsNamespace, o.logger)
	}

	e := &Engine{
		workflows: workflow.NewRegistry(),
		rules:     dispatch.NewRuleRegistry(),
		typeSys:   workflow.NewTypeSystem(),
		adapters:  im.NewManager(),
		collector: collector,
		logger:    o.logger,
	}

	e.dispatcher = dispatch.NewDispatcher(e.workflows, e.rules, e.typeSys,
		dispatch.WithLogger(o.logger),
		dispatch.WithCollector(collector),
		dispatch.WithMaxInflight(o.cfg.Dispatcher.MaxInflight),
		dispatch.WithDefaultTenantID(o.cfg.Dispatcher.DefaultTenantID),
		dispatch.WithTenantResolver(o.tenants),
		dispatch.WithExecConfig(workflow.ExecConfig{
			IOWorkers:      o.cfg.Workflow.IOWorkers,
			CPUWorkers:     o.cfg.Workflow.CPUWorkers,
			MaxConcurrency: o.cfg.Workflow.MaxConcurrency,
			DefaultTimeout: o.cfg.Workflow.DefaultTimeout,
		}),
	)
	return e
}

// Workflows returns the workflow registry.
func (e *Engine) Workflows() *workflow.Registry { return e.workflows }

// Rules returns the dispatch rule registry.
func (e *Engine) Rules() *dispatch.RuleRegistry { return e.rules }

// Types returns the shared type system.
func (e *Engine) Types() *workflow.TypeSystem { return e.typeSys }

// Adapters returns the IM adapter manager.
func (e *Engine) Adapters() *im.Manager { return e.adapters }

// Dispatcher returns the assembled dispatcher.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// RegisterRule adds a dispatch rule.
func (e *Engine) RegisterRule(rule dispatch.Rule) {
	e.dispatcher.RegisterRule(rule)
}

// Dispatch routes one inbound message through the rule engine. See
// [dispatch.Dispatcher.Dispatch] for the result contract.
func (e *Engine) Dispatch(ctx context.Context, source im.Adapter, msg *types.Message) (workflow.Results, error) {
	return e.dispatcher.Dispatch(ctx, source, msg)
}
