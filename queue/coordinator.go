package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/akashmir/harvesh-app-sub004/internal/logging"
	"github.com/akashmir/harvesh-app-sub004/internal/metrics"
	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// DeliverFunc performs a single delivery attempt for a queued item.
// It should execute the wrapped request against the remote endpoint and
// return nil on acknowledgment, or the raw failure otherwise.
type DeliverFunc func(ctx context.Context, item types.QueuedItem) error

// StateFunc reports the current connectivity state. The coordinator
// consults it between items so a drain stops promptly when the link drops.
type StateFunc func() types.ConnectivityState

// CoordinatorConfig configures the sync coordinator.
type CoordinatorConfig struct {
	// RetryPolicy bounds retries per item. Each item's attempt budget
	// continues from its persisted attempt count, so total attempts
	// across process restarts stay bounded.
	RetryPolicy policy.RetryPolicy

	// State reports connectivity. If nil, the coordinator assumes online.
	State StateFunc

	// Metrics is the collector for drain statistics. If nil, no metrics
	// are recorded.
	Metrics types.MetricsCollector

	// Logger is the structured logger for drain events. If nil, no logs
	// are emitted.
	Logger types.Logger

	// OnItemSynced is called after an item is delivered and removed (optional).
	OnItemSynced func(item types.QueuedItem)

	// OnItemFailed is called after an item is dead-lettered (optional).
	OnItemFailed func(item types.QueuedItem, err *types.AppError)

	// OnDrainComplete is called when a drain pass ends (optional).
	// synced and failed count the items resolved during the pass.
	OnDrainComplete func(synced, failed int)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*CoordinatorConfig)

// WithRetryPolicy sets the per-item retry policy.
func WithRetryPolicy(p policy.RetryPolicy) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.RetryPolicy = p
	}
}

// WithStateFunc sets the connectivity probe consulted between items.
func WithStateFunc(fn StateFunc) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.State = fn
	}
}

// WithCoordinatorMetrics sets the metrics collector.
func WithCoordinatorMetrics(m types.MetricsCollector) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.Metrics = m
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(l types.Logger) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.Logger = l
	}
}

// WithOnItemSynced sets the per-item success callback.
func WithOnItemSynced(fn func(types.QueuedItem)) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.OnItemSynced = fn
	}
}

// WithOnItemFailed sets the per-item dead-letter callback.
func WithOnItemFailed(fn func(types.QueuedItem, *types.AppError)) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.OnItemFailed = fn
	}
}

// WithOnDrainComplete sets the drain completion callback.
func WithOnDrainComplete(fn func(synced, failed int)) CoordinatorOption {
	return func(c *CoordinatorConfig) {
		c.OnDrainComplete = fn
	}
}

// Coordinator drains the offline queue when connectivity is restored.
//
// Drains are single-flight: at most one drain runs at a time. A Drain
// call arriving while a pass is running sets a redrain flag instead, and
// the running drain performs one follow-up pass before returning, so
// rapid online transitions are coalesced rather than stacked.
//
// Items are processed strictly in sequence order. An item that exhausts
// its retry budget is dead-lettered and the drain continues with the next
// item; a poison item never stalls the queue beyond its own budget.
type Coordinator struct {
	config  CoordinatorConfig
	store   Store
	deliver DeliverFunc

	draining atomic.Bool
	redrain  atomic.Bool
}

// NewCoordinator creates a sync coordinator over the given store.
//
// Parameters:
//   - store: The offline queue to drain
//   - deliver: Function performing one delivery attempt per call
//   - opts: Optional configuration options
//
// Returns:
//   - *Coordinator: A new coordinator
func NewCoordinator(store Store, deliver DeliverFunc, opts ...CoordinatorOption) *Coordinator {
	config := CoordinatorConfig{
		RetryPolicy: policy.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	return &Coordinator{
		config:  config,
		store:   store,
		deliver: deliver,
	}
}

// Draining reports whether a drain pass is currently running.
func (c *Coordinator) Draining() bool {
	return c.draining.Load()
}

// Drain processes all pending items in sequence order.
//
// If a drain is already running, the call sets the redrain flag and
// returns types.ErrDrainActive; the running drain will perform a
// follow-up pass. Draining an empty queue is a no-op and does not touch
// the last-sync timestamp.
//
// The drain stops early, leaving remaining items pending, when the
// context is cancelled or connectivity drops mid-drain.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: types.ErrDrainActive if coalesced, store failure otherwise
func (c *Coordinator) Drain(ctx context.Context) error {
	if !c.draining.CompareAndSwap(false, true) {
		c.redrain.Store(true)
		return types.ErrDrainActive
	}
	defer c.draining.Store(false)

	for {
		if err := c.drainPass(ctx); err != nil {
			return err
		}
		if !c.redrain.CompareAndSwap(true, false) {
			return nil
		}
	}
}

// drainPass performs one full pass over the pending items.
func (c *Coordinator) drainPass(ctx context.Context) error {
	start := time.Now()
	c.config.Metrics.IncDrainTotal()

	items, err := c.store.Pending(ctx)
	if err != nil {
		return err
	}

	var synced, failed int
	interrupted := false

	for i := range items {
		item := items[i]

		if ctx.Err() != nil || !c.online() {
			interrupted = true
			break
		}

		if err := c.store.MarkInFlight(ctx, item.ID); err != nil {
			// Item removed or dead-lettered since the snapshot; skip.
			if errors.Is(err, types.ErrItemNotFound) {
				continue
			}
			return err
		}

		switch outcome := c.deliverWithRetry(ctx, item); outcome {
		case outcomeSynced:
			synced++
		case outcomeDeadLettered:
			failed++
		case outcomeInterrupted:
			interrupted = true
		}
		if interrupted {
			break
		}
	}

	if depth, err := c.store.Count(ctx); err == nil {
		c.config.Metrics.SetQueueDepth(depth)
	}

	if !interrupted && len(items) > 0 {
		if err := c.store.SetLastSyncAt(ctx, time.Now().UTC()); err != nil {
			c.config.Logger.Warn("failed to record last sync time", "error", err.Error())
		}
	}

	c.config.Metrics.ObserveDrainDuration(time.Since(start).Seconds())
	c.config.Logger.Info("drain pass complete",
		"synced", synced,
		"failed", failed,
		"interrupted", interrupted,
	)
	if c.config.OnDrainComplete != nil {
		c.config.OnDrainComplete(synced, failed)
	}

	return nil
}

// drainOutcome is the per-item result of deliverWithRetry.
type drainOutcome int

const (
	outcomeSynced drainOutcome = iota
	outcomeDeadLettered
	outcomeInterrupted
)

// deliverWithRetry delivers one item, continuing from its persisted
// attempt count and dead-lettering it when the budget is exhausted.
func (c *Coordinator) deliverWithRetry(ctx context.Context, item types.QueuedItem) drainOutcome {
	p := c.config.RetryPolicy.Normalize()
	attempt := item.Attempts

	for {
		if attempt >= p.MaxAttempts {
			return c.deadLetter(ctx, item, &types.AppError{
				Kind:       types.KindServerError,
				Message:    "retry budget exhausted",
				Code:       "retry_exhausted",
				RetryCount: attempt,
			})
		}

		attempt++
		item.Attempts = attempt
		if err := c.store.RecordAttempt(ctx, item.ID, attempt); err != nil {
			c.config.Logger.Warn("failed to persist attempt count",
				"seq", item.Seq, "error", err.Error())
		}

		err := c.deliver(ctx, item)
		if err == nil {
			if err := c.store.MarkSucceeded(ctx, item.ID); err != nil {
				c.config.Logger.Error("failed to remove synced item",
					"seq", item.Seq, "error", err.Error())
			}
			c.config.Metrics.IncQueueDrained()
			c.config.Logger.Debug("queued item delivered",
				"seq", item.Seq, "attempts", attempt)
			if c.config.OnItemSynced != nil {
				c.config.OnItemSynced(item)
			}

			return outcomeSynced
		}

		appErr := policy.Classify(err)

		// Connectivity dropped mid-drain: the item stays pending for the
		// next online transition, keeping its consumed attempt budget.
		if appErr.Kind == types.KindNoInternet || ctx.Err() != nil {
			c.interrupt(ctx, item)
			return outcomeInterrupted
		}

		c.config.Logger.Warn("queued item delivery failed",
			"seq", item.Seq,
			"attempt", attempt,
			"kind", appErr.Kind.String(),
			"error", appErr.Error(),
		)

		if !appErr.Retryable || attempt >= p.MaxAttempts {
			appErr.RetryCount = attempt
			return c.deadLetter(ctx, item, appErr)
		}

		select {
		case <-ctx.Done():
			c.interrupt(ctx, item)
			return outcomeInterrupted
		case <-time.After(p.Delay(attempt)):
		}

		if !c.online() {
			c.interrupt(ctx, item)
			return outcomeInterrupted
		}
	}
}

// deadLetter marks an item permanently failed and keeps the drain going.
func (c *Coordinator) deadLetter(ctx context.Context, item types.QueuedItem, appErr *types.AppError) drainOutcome {
	if err := c.store.MarkFailed(ctx, item.ID, appErr.Error()); err != nil {
		c.config.Logger.Error("failed to dead-letter item",
			"seq", item.Seq, "error", err.Error())
	}
	c.config.Metrics.IncQueueDeadLettered()
	c.config.Logger.Warn("queued item dead-lettered",
		"seq", item.Seq,
		"attempts", item.Attempts,
		"reason", appErr.Message,
	)
	if c.config.OnItemFailed != nil {
		c.config.OnItemFailed(item, appErr)
	}

	return outcomeDeadLettered
}

// interrupt returns an in-flight item to pending for the next drain.
func (c *Coordinator) interrupt(ctx context.Context, item types.QueuedItem) {
	// Use a detached context so the item is restored even when the drain
	// context is already cancelled.
	restoreCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		restoreCtx, cancel = context.WithTimeout(context.Background(), time.Second)
		defer cancel()
	}
	if err := c.store.MarkPending(restoreCtx, item.ID); err != nil {
		c.config.Logger.Error("failed to restore interrupted item",
			"seq", item.Seq, "error", err.Error())
	}
}

// online reports the configured connectivity state, defaulting to online.
func (c *Coordinator) online() bool {
	if c.config.State == nil {
		return true
	}
	return c.config.State() == types.Online
}
