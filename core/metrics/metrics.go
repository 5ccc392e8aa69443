package metrics

import "time"

// PassEvent describes one scheduling pass over a plan.
type PassEvent struct {
	Source      string // what triggered the pass: startup, watch or cron
	Plan        string // plan file path
	Activities  int
	Fixed       int
	Rigid       int
	SpanMinutes int  // time between first and last anchor
	Changed     bool // whether the resolved plan differs from its input
	Duration    time.Duration
	Time        time.Time
}

// Sink records scheduling passes for observability purposes.
type Sink interface {
	RecordPass(ev PassEvent) error
}

// PassErrorEvent is emitted when a plan could not be loaded, validated or
// written back.
type PassErrorEvent struct {
	Source string
	Plan   string
	Stage  string // load, validate, write
	Err    string
	Time   time.Time
}

// PassErrorRecorder is implemented by sinks able to count failed passes.
type PassErrorRecorder interface {
	RecordPassError(ev PassErrorEvent) error
}

// NopSink implements Sink and PassErrorRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPass(PassEvent) error           { return nil }
func (NopSink) RecordPassError(PassErrorEvent) error { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPass forwards ev to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPass(ev PassEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPass(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPassError forwards ev to the sinks that support it.
func (m *MultiSink) RecordPassError(ev PassErrorEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PassErrorRecorder); ok {
			if err := rec.RecordPassError(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the inner sinks that hold resources, such as the Influx
// client, and returns the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := Close(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close releases s when it implements Close() or Close() error.
func Close(s Sink) error {
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
