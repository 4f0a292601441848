// Package track is the timing side-channel of the dispatcher: every inbound
// request opens a span labelled by what the request targets, and the span is
// closed with the outcome. Trackers must never influence dispatch results.
package track

import (
	"time"

	"go.uber.org/zap"
)

// Span observes the outcome of one tracked request.
type Span interface {
	OnSuccess()
	OnError(err error)
}

// Tracker starts spans. Implementations must be safe for concurrent use.
type Tracker interface {
	Start(label string) Span
}

// NopTracker discards all spans.
type NopTracker struct{}

func (NopTracker) Start(string) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) OnSuccess()    {}
func (nopSpan) OnError(error) {}

// TimingTracker logs the duration and outcome of every span.
type TimingTracker struct {
	logger *zap.Logger
}

func NewTimingTracker(logger *zap.Logger) *TimingTracker {
	return &TimingTracker{logger: logger}
}

func (t *TimingTracker) Start(label string) Span {
	return &timingSpan{logger: t.logger, label: label, start: time.Now()}
}

type timingSpan struct {
	logger *zap.Logger
	label  string
	start  time.Time
}

func (s *timingSpan) OnSuccess() {
	s.logger.Info("request completed",
		zap.String("label", s.label),
		zap.Duration("duration", time.Since(s.start)))
}

func (s *timingSpan) OnError(err error) {
	s.logger.Warn("request failed",
		zap.String("label", s.label),
		zap.Duration("duration", time.Since(s.start)),
		zap.Error(err))
}
