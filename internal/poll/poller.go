package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/fetch"
	"sensorwatch/internal/metrics"
)

// Source supplies fresh readings for one evaluation batch.
// Params: request context.
// Returns: readings sorted newest-first or fetch error.
type Source interface {
	Readings(ctx context.Context) ([]domain.Reading, error)
}

// Sink consumes one batch of readings.
// Params: context and reading batch.
// Returns: processing error surfaced to the poll loop for logging.
type Sink interface {
	EvaluateBatch(ctx context.Context, readings []domain.Reading) error
}

// Poller drives periodic fetch/evaluate cycles at a runtime-adjustable interval.
// Params: source, sink, initial interval, and per-batch reading cap.
// Returns: timer-driven loop; each batch completes synchronously before the
// next tick, so there is never overlapping evaluation.
type Poller struct {
	mu          sync.Mutex
	interval    time.Duration
	paused      bool
	latestCount int
	source      Source
	sink        Sink
	logger      *slog.Logger
	reschedule  chan struct{}
}

// New creates polling driver.
// Params: source, sink, logger, initial interval, and batch cap.
// Returns: initialized poller; Run starts the loop.
func New(source Source, sink Sink, logger *slog.Logger, interval time.Duration, latestCount int) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval:    interval,
		latestCount: latestCount,
		source:      source,
		sink:        sink,
		logger:      logger,
		reschedule:  make(chan struct{}, 1),
	}
}

// SetInterval cancels the pending tick and reschedules at the new interval.
// Params: new interval; non-positive values are ignored.
// Returns: none.
func (p *Poller) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = interval
	p.mu.Unlock()
	p.kick()
}

// SetPaused suspends or resumes ticking without tearing the loop down.
// Params: paused flag.
// Returns: none.
func (p *Poller) SetPaused(paused bool) {
	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
	p.kick()
}

// OnSettingsChanged applies persisted settings updates to the running loop.
// Params: new settings snapshot.
// Returns: none; implements settings.Listener.
func (p *Poller) OnSettingsChanged(settings domain.Settings) {
	p.mu.Lock()
	if settings.RefreshIntervalSeconds > 0 {
		p.interval = time.Duration(settings.RefreshIntervalSeconds) * time.Second
	}
	p.paused = !settings.AutoRefresh
	p.mu.Unlock()
	p.kick()
}

// kick signals the loop to re-read interval/pause state.
// Params: none.
// Returns: none; coalesces concurrent signals.
func (p *Poller) kick() {
	select {
	case p.reschedule <- struct{}{}:
	default:
	}
}

// Run executes the poll loop until the context is canceled.
// Params: root context.
// Returns: context error on shutdown; the timer is always deregistered.
func (p *Poller) Run(ctx context.Context) error {
	p.tick(ctx)

	timer := time.NewTimer(p.snapshotInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.reschedule:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			interval, paused := p.snapshot()
			if paused {
				// Leave the timer stopped; the next reschedule or
				// shutdown wakes the loop.
				continue
			}
			timer.Reset(interval)
		case <-timer.C:
			p.tick(ctx)
			interval, paused := p.snapshot()
			if paused {
				continue
			}
			timer.Reset(interval)
		}
	}
}

// snapshot returns current interval and pause state.
// Params: none.
// Returns: interval duration and paused flag.
func (p *Poller) snapshot() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval, p.paused
}

// snapshotInterval returns current interval only.
// Params: none.
// Returns: interval duration.
func (p *Poller) snapshotInterval() time.Duration {
	interval, _ := p.snapshot()
	return interval
}

// tick runs one fetch/evaluate cycle.
// Params: loop context.
// Returns: none; fetch and evaluation errors are logged, never fatal.
func (p *Poller) tick(ctx context.Context) {
	if _, paused := p.snapshot(); paused {
		return
	}

	started := time.Now()
	readings, err := p.source.Readings(ctx)
	metrics.PollFetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.PollFetchTotal.WithLabelValues("error").Inc()
		p.logger.Warn("sensor fetch failed", "error", err.Error())
		return
	}
	metrics.PollFetchTotal.WithLabelValues("ok").Inc()

	batch := fetch.LatestN(readings, p.latestCount)
	metrics.PollBatchSize.Observe(float64(len(batch)))
	if len(batch) == 0 {
		return
	}
	if err := p.sink.EvaluateBatch(ctx, batch); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("evaluation batch failed", "error", err.Error())
	}
}
