package lfas

import (
	"log/slog"
	"time"
)

// timer measures one phase of an indexing or search operation and reports
// it through the engine's logger. Go has no destructors, so the caller
// logs explicitly (usually via defer) instead of relying on drop.
type timer struct {
	start  time.Time
	label  string
	logger *slog.Logger
}

func startTimer(logger *slog.Logger, label string) *timer {
	return &timer{start: time.Now(), label: label, logger: logger}
}

func (t *timer) elapsedMS() float64 {
	return float64(time.Since(t.start)) / float64(time.Millisecond)
}

func (t *timer) log() {
	t.logger.Debug("[TIMING] phase finished",
		slog.String("phase", t.label), slog.Float64("ms", t.elapsedMS()))
}

// logWithRate reports the phase duration plus an items/sec throughput, for
// bulk operations where the rate is the number that matters.
func (t *timer) logWithRate(count int) {
	ms := t.elapsedMS()
	rate := 0.0
	if ms > 0 {
		rate = float64(count) / (ms / 1000.0)
	}
	t.logger.Debug("[TIMING] phase finished",
		slog.String("phase", t.label), slog.Float64("ms", ms),
		slog.Int("items", count), slog.Float64("items_per_sec", rate))
}
