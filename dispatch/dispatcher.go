package dispatch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/botflow/im"
	"github.com/BaSui01/botflow/internal/metrics"
	"github.com/BaSui01/botflow/types"
	"github.com/BaSui01/botflow/workflow"
)

// DefaultMaxInflight bounds concurrent workflow runs across the process when
// no explicit limit is configured.
const DefaultMaxInflight = 128

// DefaultTenantID is used when neither the message metadata nor the tenant
// resolver yields a tenant.
const DefaultTenantID = "default"

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithCollector attaches the process metrics collector; it is also passed to
// every executor the dispatcher builds.
func WithCollector(collector *metrics.Collector) DispatcherOption {
	return func(d *Dispatcher) { d.collector = collector }
}

// WithMaxInflight bounds concurrent dispatches. Values below 1 fall back to 1.
func WithMaxInflight(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.maxInflight = n
	}
}

// WithTenantResolver sets the membership lookup consulted when the message
// metadata carries no tenant id.
func WithTenantResolver(resolver TenantResolver) DispatcherOption {
	return func(d *Dispatcher) { d.tenants = resolver }
}

// WithDefaultTenantID overrides the tenant id of last resort.
func WithDefaultTenantID(id string) DispatcherOption {
	return func(d *Dispatcher) {
		if id != "" {
			d.defaultTenantID = id
		}
	}
}

// WithExecConfig sets the execution limits handed to every executor the
// dispatcher builds.
func WithExecConfig(cfg workflow.ExecConfig) DispatcherOption {
	return func(d *Dispatcher) { d.execCfg = cfg }
}

// Dispatcher routes inbound messages to workflows and runs them. It owns the
// process-wide admission semaphore; a dispatch past the in-flight bound
// blocks until a slot frees rather than being rejected.
type Dispatcher struct {
	workflows *workflow.Registry
	rules     *RuleRegistry
	typeSys   *workflow.TypeSystem

	logger          *zap.Logger
	collector       *metrics.Collector
	tenants         TenantResolver
	defaultTenantID string
	execCfg         workflow.ExecConfig
	maxInflight     int

	sem *semaphore.Weighted
}

// NewDispatcher creates a dispatcher over the given workflow and rule
// registries. The type system validates every graph the dispatcher executes.
func NewDispatcher(workflows *workflow.Registry, rules *RuleRegistry, typeSys *workflow.TypeSystem, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		workflows:       workflows,
		rules:           rules,
		typeSys:         typeSys,
		logger:          zap.NewNop(),
		defaultTenantID: DefaultTenantID,
		execCfg:         workflow.DefaultExecConfig(),
		maxInflight:     DefaultMaxInflight,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("component", "dispatcher"))
	d.sem = semaphore.NewWeighted(int64(d.maxInflight))
	return d
}

// RegisterRule adds a rule to the dispatcher's registry.
func (d *Dispatcher) RegisterRule(rule Rule) {
	d.rules.Register(rule)
	d.logger.Info("registered dispatch rule",
		zap.String("rule", rule.ID()),
		zap.String("type", rule.Type()),
		zap.String("workflow", rule.WorkflowID()),
	)
}

// Dispatch routes one message: it resolves the tenant, evaluates enabled
// rules in order, and runs the first match's workflow. Workflow failures
// (including timeouts and missing workflows) are logged, counted, and
// converted to a nil result; they never propagate. A nil result with a nil
// error also means no rule matched. The returned error is non-nil only when
// ctx is cancelled while waiting for an admission slot.
func (d *Dispatcher) Dispatch(ctx context.Context, source im.Adapter, msg *types.Message) (workflow.Results, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	dctx := &Context{
		Adapter:  source,
		Message:  msg,
		TenantID: d.resolveTenantID(msg),
	}

	for _, rule := range d.rules.ActiveRules() {
		if !rule.Match(msg, dctx) {
			continue
		}
		dctx.Rule = rule
		if d.collector != nil {
			d.collector.RecordDispatch(rule.Type())
		}
		d.logger.Debug("dispatch rule matched",
			zap.String("rule", rule.ID()),
			zap.String("workflow", rule.WorkflowID()),
			zap.String("tenant", dctx.TenantID),
		)

		results, err := d.runWorkflow(ctx, rule, dctx)
		if err != nil {
			if d.collector != nil {
				d.collector.RecordDispatchFailure(rule.Type())
			}
			if workflow.IsTimeout(err) {
				d.logger.Warn("workflow execution timed out",
					zap.String("workflow", rule.WorkflowID()),
					zap.Error(err),
				)
			} else {
				d.logger.Error("workflow execution failed",
					zap.String("workflow", rule.WorkflowID()),
					zap.Error(err),
				)
			}
			return nil, nil
		}
		return results, nil
	}

	d.logger.Debug("no matching rule for message", zap.String("sender", msg.Sender.UserID))
	return nil, nil
}

// runWorkflow resolves the rule's target graph and runs it on a fresh
// executor bound to the dispatch context.
func (d *Dispatcher) runWorkflow(ctx context.Context, rule Rule, dctx *Context) (workflow.Results, error) {
	wf, ok := d.workflows.Get(rule.WorkflowID())
	if !ok {
		return nil, types.Errorf(types.ErrWorkflowNotFound,
			"workflow %s for rule %s not found, check the rule configuration",
			rule.WorkflowID(), rule.ID()).
			WithWorkflow(rule.WorkflowID())
	}

	exec, err := workflow.NewExecutor(wf, d.typeSys,
		workflow.WithLogger(d.logger),
		workflow.WithCollector(d.collector),
		workflow.WithExecConfig(d.execCfg),
		workflow.WithScope(dctx),
	)
	if err != nil {
		return nil, err
	}
	return exec.Run(ctx)
}

// resolveTenantID picks the tenant for a dispatch: message metadata first,
// then the resolver, then the configured default.
func (d *Dispatcher) resolveTenantID(msg *types.Message) string {
	if id := msg.TenantID(); id != "" {
		return id
	}
	if d.tenants != nil {
		if id, ok := d.tenants.ResolveTenant(msg.Sender.UserID); ok && id != "" {
			return id
		}
	}
	return d.defaultTenantID
}
