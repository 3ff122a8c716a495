// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 调度指标
	dispatchesTotal       *prometheus.CounterVec
	dispatchFailuresTotal *prometheus.CounterVec

	// 工作流运行指标
	runsSuccessTotal *prometheus.CounterVec
	runsFailedTotal  *prometheus.CounterVec

	// Block 执行指标
	blocksTotal       *prometheus.CounterVec
	blocksFailedTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 调度指标
	c.dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_dispatches_total",
			Help:      "Total number of workflow dispatches",
		},
		[]string{"rule"},
	)

	c.dispatchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_dispatch_failures_total",
			Help:      "Total number of failed workflow dispatches",
		},
		[]string{"rule"},
	)

	// 工作流运行指标
	c.runsSuccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_success_total",
			Help:      "Total number of successful workflow runs",
		},
		[]string{"workflow"},
	)

	c.runsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_failed_total",
			Help:      "Total number of failed workflow runs",
		},
		[]string{"workflow"},
	)

	// Block 执行指标
	c.blocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_blocks_total",
			Help:      "Total number of executed blocks",
		},
		[]string{"workflow"},
	)

	c.blocksFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_blocks_failed_total",
			Help:      "Total number of failed block executions",
		},
		[]string{"workflow"},
	)

	return c
}

// RecordDispatch 记录一次工作流调度
func (c *Collector) RecordDispatch(rule string) {
	c.dispatchesTotal.WithLabelValues(rule).Inc()
}

// RecordDispatchFailure 记录一次调度失败
func (c *Collector) RecordDispatchFailure(rule string) {
	c.dispatchFailuresTotal.WithLabelValues(rule).Inc()
}

// RecordRunSuccess 记录一次工作流运行成功
func (c *Collector) RecordRunSuccess(workflow string) {
	c.runsSuccessTotal.WithLabelValues(workflow).Inc()
}

// RecordRunFailure 记录一次工作流运行失败
func (c *Collector) RecordRunFailure(workflow string) {
	c.runsFailedTotal.WithLabelValues(workflow).Inc()
}

// RecordBlock 记录一次 Block 执行成功
func (c *Collector) RecordBlock(workflow string) {
	c.blocksTotal.WithLabelValues(workflow).Inc()
}

// RecordBlockFailure 记录一次 Block 执行失败
func (c *Collector) RecordBlockFailure(workflow string) {
	c.blocksFailedTotal.WithLabelValues(workflow).Inc()
}
