package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sensorwatch/internal/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	readings []domain.Reading
	err      error
	calls    int
}

func (s *fakeSource) Readings(context.Context) ([]domain.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Reading(nil), s.readings...), nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSink struct {
	mu      sync.Mutex
	batches [][]domain.Reading
	err     error
	seen    chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{seen: make(chan struct{}, 64)}
}

func (s *fakeSink) EvaluateBatch(_ context.Context, readings []domain.Reading) error {
	s.mu.Lock()
	s.batches = append(s.batches, readings)
	err := s.err
	s.mu.Unlock()
	select {
	case s.seen <- struct{}{}:
	default:
	}
	return err
}

func (s *fakeSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func waitFor(t *testing.T, signal <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-signal:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func someReadings(n int) []domain.Reading {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.Reading, n)
	for i := range out {
		out[i] = domain.Reading{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
			Status:    domain.StatusNormal,
		}
	}
	return out
}

func TestRunTicksImmediatelyAndPeriodically(t *testing.T) {
	t.Parallel()

	source := &fakeSource{readings: someReadings(3)}
	sink := newFakeSink()
	poller := New(source, sink, nil, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	waitFor(t, sink.seen, "first batch")
	waitFor(t, sink.seen, "second batch")
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v", err)
	}
	if source.callCount() < 2 {
		t.Fatalf("expected repeated fetches, got %d", source.callCount())
	}
}

func TestRunCapsBatchSize(t *testing.T) {
	t.Parallel()

	source := &fakeSource{readings: someReadings(6)}
	sink := newFakeSink()
	poller := New(source, sink, nil, time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	waitFor(t, sink.seen, "initial batch")
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.batches) == 0 || len(sink.batches[0]) != 2 {
		t.Fatalf("expected capped batch of 2, got %+v", sink.batches)
	}
	// Cap keeps the newest rows from the sorted feed.
	if sink.batches[0][0].ID != "a" || sink.batches[0][1].ID != "b" {
		t.Fatalf("unexpected batch contents: %+v", sink.batches[0])
	}
}

func TestRunSkipsEmptyBatches(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	sink := newFakeSink()
	poller := New(source, sink, nil, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// Give the loop a few ticks with an empty feed.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if source.callCount() == 0 {
		t.Fatalf("expected fetches against empty feed")
	}
	if sink.batchCount() != 0 {
		t.Fatalf("empty feed must not reach the sink, got %d batches", sink.batchCount())
	}
}

func TestRunSurvivesFetchErrors(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("boom")}
	sink := newFakeSink()
	poller := New(source, sink, nil, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	source.mu.Lock()
	source.err = nil
	source.readings = someReadings(1)
	source.mu.Unlock()

	waitFor(t, sink.seen, "batch after recovery")
	cancel()
	<-done
}

func TestSetPausedStopsTicking(t *testing.T) {
	t.Parallel()

	source := &fakeSource{readings: someReadings(1)}
	sink := newFakeSink()
	poller := New(source, sink, nil, 5*time.Millisecond, 10)
	poller.SetPaused(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	time.Sleep(40 * time.Millisecond)
	if sink.batchCount() != 0 {
		t.Fatalf("paused poller must not evaluate, got %d batches", sink.batchCount())
	}

	poller.SetPaused(false)
	waitFor(t, sink.seen, "batch after resume")
	cancel()
	<-done
}

func TestOnSettingsChangedAppliesIntervalAndPause(t *testing.T) {
	t.Parallel()

	source := &fakeSource{readings: someReadings(1)}
	sink := newFakeSink()
	poller := New(source, sink, nil, time.Hour, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	waitFor(t, sink.seen, "initial batch")
	before := sink.batchCount()

	// An hour-long interval would never fire inside this test; shrinking
	// it through a settings update must reschedule the pending tick.
	poller.OnSettingsChanged(domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 1})
	waitFor(t, sink.seen, "batch after interval change")
	if sink.batchCount() <= before {
		t.Fatalf("expected additional batch after reschedule")
	}

	poller.OnSettingsChanged(domain.Settings{AutoRefresh: false, RefreshIntervalSeconds: 1})
	cancel()
	<-done
}
