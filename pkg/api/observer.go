package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the graph store and the mutation layer
// for logging and metrics.
//
// Implementations should be fast and non-blocking; callbacks run on the
// caller's goroutine, sometimes while the store is settling a write.
type Observer interface {
	// OnFlowLoaded is called after a flow became the current flow.
	OnFlowLoaded(ctx context.Context, flow *Flow)

	// OnLoadFailed is called when fetching a flow failed.
	OnLoadFailed(ctx context.Context, flowID string, err error)

	// OnGraphChanged is called after a mutation was installed in the store.
	OnGraphChanged(ctx context.Context, flowID string, change ChangeType, revision uint64)

	// OnMutationRejected is called when a mutation was refused by validation.
	OnMutationRejected(ctx context.Context, flowID string, err error)

	// OnPersistStart is called before the debounced write is sent.
	OnPersistStart(ctx context.Context, flowID string, revision uint64)

	// OnPersistCompleted is called after the write returned, for both
	// successes and failures (err != nil).
	OnPersistCompleted(ctx context.Context, flowID string, revision uint64, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnFlowLoaded(ctx context.Context, flow *Flow)               {}
func (NoopObserver) OnLoadFailed(ctx context.Context, flowID string, err error) {}
func (NoopObserver) OnGraphChanged(ctx context.Context, flowID string, change ChangeType, rev uint64) {
}
func (NoopObserver) OnMutationRejected(ctx context.Context, flowID string, err error) {}
func (NoopObserver) OnPersistStart(ctx context.Context, flowID string, rev uint64)   {}
func (NoopObserver) OnPersistCompleted(ctx context.Context, flowID string, rev uint64, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnFlowLoaded(ctx context.Context, flow *Flow) {
	for _, o := range c.observers {
		o.OnFlowLoaded(ctx, flow)
	}
}

func (c *CompositeObserver) OnLoadFailed(ctx context.Context, flowID string, err error) {
	for _, o := range c.observers {
		o.OnLoadFailed(ctx, flowID, err)
	}
}

func (c *CompositeObserver) OnGraphChanged(ctx context.Context, flowID string, change ChangeType, rev uint64) {
	for _, o := range c.observers {
		o.OnGraphChanged(ctx, flowID, change, rev)
	}
}

func (c *CompositeObserver) OnMutationRejected(ctx context.Context, flowID string, err error) {
	for _, o := range c.observers {
		o.OnMutationRejected(ctx, flowID, err)
	}
}

func (c *CompositeObserver) OnPersistStart(ctx context.Context, flowID string, rev uint64) {
	for _, o := range c.observers {
		o.OnPersistStart(ctx, flowID, rev)
	}
}

func (c *CompositeObserver) OnPersistCompleted(ctx context.Context, flowID string, rev uint64, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnPersistCompleted(ctx, flowID, rev, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs store lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnFlowLoaded(ctx context.Context, flow *Flow) {
	o.Logger.InfoContext(ctx, "flow_loaded",
		slog.String("flow_id", flow.ID),
		slog.String("flow", flow.Name),
		slog.Int("nodes", len(flow.Data.Nodes)),
		slog.Int("edges", len(flow.Data.Edges)),
	)
}

func (o *LoggingObserver) OnLoadFailed(ctx context.Context, flowID string, err error) {
	o.Logger.ErrorContext(ctx, "flow_load_failed",
		slog.String("flow_id", flowID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnGraphChanged(ctx context.Context, flowID string, change ChangeType, rev uint64) {
	o.Logger.DebugContext(ctx, "graph_changed",
		slog.String("flow_id", flowID),
		slog.String("change", string(change)),
		slog.Uint64("revision", rev),
	)
}

func (o *LoggingObserver) OnMutationRejected(ctx context.Context, flowID string, err error) {
	o.Logger.WarnContext(ctx, "mutation_rejected",
		slog.String("flow_id", flowID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPersistStart(ctx context.Context, flowID string, rev uint64) {
	o.Logger.DebugContext(ctx, "persist_start",
		slog.String("flow_id", flowID),
		slog.Uint64("revision", rev),
	)
}

func (o *LoggingObserver) OnPersistCompleted(ctx context.Context, flowID string, rev uint64, err error, d time.Duration) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "persist_completed",
		slog.String("flow_id", flowID),
		slog.Uint64("revision", rev),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate persist durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	flowsLoaded       atomic.Int64
	loadFailures      atomic.Int64
	mutations         atomic.Int64
	rejectedMutations atomic.Int64
	persistsStarted   atomic.Int64
	persistsCompleted atomic.Int64
	persistFailures   atomic.Int64
	totalPersistTime  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	FlowsLoaded       int64
	LoadFailures      int64
	Mutations         int64
	RejectedMutations int64

	PersistsStarted   int64
	PersistsCompleted int64
	PersistFailures   int64
	InFlightPersists  int64
	AvgPersistTime    time.Duration
}

func (m *BasicMetrics) OnFlowLoaded(ctx context.Context, flow *Flow) {
	m.flowsLoaded.Add(1)
}

func (m *BasicMetrics) OnLoadFailed(ctx context.Context, flowID string, err error) {
	m.loadFailures.Add(1)
}

func (m *BasicMetrics) OnGraphChanged(ctx context.Context, flowID string, change ChangeType, rev uint64) {
	m.mutations.Add(1)
}

func (m *BasicMetrics) OnMutationRejected(ctx context.Context, flowID string, err error) {
	m.rejectedMutations.Add(1)
}

func (m *BasicMetrics) OnPersistStart(ctx context.Context, flowID string, rev uint64) {
	m.persistsStarted.Add(1)
}

func (m *BasicMetrics) OnPersistCompleted(ctx context.Context, flowID string, rev uint64, err error, d time.Duration) {
	if err != nil {
		m.persistFailures.Add(1)
		return
	}
	m.persistsCompleted.Add(1)
	m.totalPersistTime.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.persistsStarted.Load()
	completed := m.persistsCompleted.Load()
	failed := m.persistFailures.Load()
	totalNs := m.totalPersistTime.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(totalNs / completed)
	}

	return BasicMetricsSnapshot{
		FlowsLoaded:       m.flowsLoaded.Load(),
		LoadFailures:      m.loadFailures.Load(),
		Mutations:         m.mutations.Load(),
		RejectedMutations: m.rejectedMutations.Load(),
		PersistsStarted:   started,
		PersistsCompleted: completed,
		PersistFailures:   failed,
		InFlightPersists:  started - completed - failed,
		AvgPersistTime:    avg,
	}
}
