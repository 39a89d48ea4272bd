// Package engine ties the sync pipeline together: it restores a session
// graph from the durable cache, supervises the event stream with reconnect
// and backoff, falls back to snapshot polling when streaming is unavailable,
// reconciles REST snapshots into the graph, and exposes the approval and
// artifact actions. One Engine per session; the graph is mutated only under
// the engine's lock, always reading the current graph at application time.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/cache"
	"github.com/felixgeelhaar/tasksync/internal/client"
	"github.com/felixgeelhaar/tasksync/internal/graph"
	"github.com/felixgeelhaar/tasksync/internal/log"
	"github.com/felixgeelhaar/tasksync/internal/reduce"
	"github.com/felixgeelhaar/tasksync/internal/stream"
)

// ConnState describes the stream connection lifecycle
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StatePolling      ConnState = "polling"
)

// Options are the runtime-configurable knobs of the engine
type Options struct {
	// PollInterval is the snapshot refresh cadence when streaming is
	// unavailable.
	PollInterval time.Duration

	// RefreshInterval is the periodic reconciliation cadence while the
	// stream is connected.
	RefreshInterval time.Duration

	// ReconnectBase and ReconnectMax bound the exponential backoff between
	// reconnect attempts.
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// DefaultOptions returns the standard engine options
func DefaultOptions() Options {
	return Options{
		PollInterval:    5 * time.Second,
		RefreshInterval: 30 * time.Second,
		ReconnectBase:   time.Second,
		ReconnectMax:    30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = def.RefreshInterval
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = def.ReconnectBase
	}
	if o.ReconnectMax <= 0 {
		o.ReconnectMax = def.ReconnectMax
	}
	return o
}

// Engine reconstructs and maintains one session's graph
type Engine struct {
	sessionID string
	api       *client.Client
	transport *stream.Transport
	store     *cache.Store
	monitor   *stream.Monitor
	opts      Options
	logger    *log.Logger

	mu          sync.Mutex
	graph       *graph.Graph
	reducer     *reduce.Reducer
	lastEventID string
	state       ConnState
	restoredAt  time.Time
	onChange    func(*graph.Graph)

	refreshing atomic.Bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an engine for the session, restoring the graph (and the
// reducer's seen-event set) from the durable cache when a valid entry
// exists.
func New(sessionID string, api *client.Client, transport *stream.Transport, store *cache.Store, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	logger = logger.With("session_id", sessionID)

	e := &Engine{
		sessionID: sessionID,
		api:       api,
		transport: transport,
		store:     store,
		monitor:   stream.NewMonitor(logger),
		opts:      opts.withDefaults(),
		logger:    logger,
		state:     StateDisconnected,
	}

	rstore := reduce.NewStore()
	if store != nil {
		if cached, savedAt, ok := store.Load(sessionID); ok {
			e.graph = cached
			e.restoredAt = savedAt
			rstore.SeedFromNodes(cached.Nodes)
			logger.Debug("graph restored from cache", "nodes", len(cached.Nodes), "saved_at", savedAt)
		}
	}
	if e.graph == nil {
		e.graph = graph.New(sessionID)
	}
	e.reducer = reduce.New(rstore, logger)
	return e
}

// OnChange registers a callback invoked after every graph change. Must be
// set before Start. The callback runs outside the engine lock and receives
// a snapshot that stays valid after the engine moves on.
func (e *Engine) OnChange(fn func(*graph.Graph)) {
	e.onChange = fn
}

// View runs fn with the current graph under the engine lock
func (e *Engine) View(fn func(*graph.Graph)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.graph)
}

// State returns the current connection state
func (e *Engine) State() ConnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Live reports whether the stream is actively producing heartbeats/events
func (e *Engine) Live() bool {
	return e.monitor.Live()
}

// LastEventID returns the id of the last event handed to the reducer
func (e *Engine) LastEventID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEventID
}

// Start launches the sync loops. Cancel via Close (or the parent context).
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		e.monitor.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.refreshLoop(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.run(ctx)
	}()
}

// Close tears the engine down: aborts any in-flight connection attempt,
// cancels retry timers and tickers, and waits for all loops to exit. No
// graph mutation happens after Close returns.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		e.wg.Wait()
		e.setState(StateDisconnected)
	})
}

// run is the reconnection controller: connect, read until the stream drops,
// back off, repeat. A stream-unavailable answer switches permanently to
// polling for the lifetime of this engine.
func (e *Engine) run(ctx context.Context) {
	attempt := 0

	for ctx.Err() == nil {
		e.setState(StateConnecting)

		conn, err := e.transport.Open(ctx, e.sessionID, e.LastEventID())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if stream.IsUnavailable(err) {
				e.logger.WithError(err).Info("streaming unavailable, polling snapshots")
				e.pollLoop(ctx)
				return
			}

			attempt++
			delay := backoffDelay(e.opts.ReconnectBase, e.opts.ReconnectMax, attempt-1)
			e.logger.WithError(err).Warn("stream connect failed",
				"attempt", attempt, "retry_in", delay)
			e.setState(StateDisconnected)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		attempt = 0
		e.setState(StateConnected)
		e.monitor.Touch()

		// Reconciliation on (re)connect closes any gap the resume id
		// cannot cover.
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.refresh(ctx)
		}()

		e.readLoop(ctx, conn)
		conn.Close()
		e.setState(StateDisconnected)

		if ctx.Err() != nil {
			return
		}
		delay := backoffDelay(e.opts.ReconnectBase, e.opts.ReconnectMax, attempt)
		attempt++
		e.logger.Debug("stream disconnected", "retry_in", delay)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// readLoop consumes frames until the stream errors or closes
func (e *Engine) readLoop(ctx context.Context, conn *stream.Conn) {
	for {
		frame, err := conn.Next()
		if err != nil {
			if ctx.Err() == nil {
				e.logger.Debug("stream read ended", "error", err.Error())
			}
			return
		}

		e.monitor.Touch()
		if frame.Event == stream.Heartbeat {
			continue
		}
		e.applyFrame(frame)
	}
}

// applyFrame hands one frame to the reducer and persists the result
func (e *Engine) applyFrame(frame stream.Frame) {
	e.mu.Lock()
	changed := e.reducer.Apply(e.graph, reduce.Event{
		ID:      frame.ID,
		Type:    frame.Event,
		Payload: frame.Data,
	}, time.Now())
	if frame.ID != "" {
		e.lastEventID = frame.ID
	}
	var notify func(*graph.Graph)
	var snap *graph.Graph
	if changed {
		e.persistLocked()
		if e.onChange != nil {
			notify, snap = e.onChange, e.graph.Snapshot()
		}
	}
	e.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// pollLoop refreshes snapshots at the poll interval until teardown
func (e *Engine) pollLoop(ctx context.Context) {
	e.setState(StatePolling)
	e.refresh(ctx)

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refresh(ctx)
		}
	}
}

// refreshLoop reconciles periodically while the stream is connected
func (e *Engine) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.State() == StateConnected {
				e.refresh(ctx)
			}
		}
	}
}

// refresh runs Refresh and logs failures; used by the background loops
func (e *Engine) refresh(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil && ctx.Err() == nil {
		e.logger.WithError(err).Warn("snapshot refresh failed")
	}
}

// persistLocked writes the graph through to the durable cache.
// Callers must hold e.mu.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	e.store.Save(e.sessionID, e.graph)
}

// setState records the connection state
func (e *Engine) setState(s ConnState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// backoffDelay computes min(base * 2^attempt, max)
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt > 30 {
		return max
	}
	d := base << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleep waits for d or context cancellation; returns false when cancelled
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
