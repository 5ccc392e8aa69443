package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/core/history"
	corelogger "github.com/kilianp07/dayplan/core/logger"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/plan"
)

const morning = `date: "2025-03-10"
activities:
  - id: s
    name: Start
    length: "0"
    start: "09:00"
    fixed: x
  - id: w
    name: Write
    length: "30"
  - id: e
    name: END
    length: "0"
    start: "10:00"
    fixed: x
`

type recordingSink struct {
	mu     sync.Mutex
	passes []coremetrics.PassEvent
	errs   []coremetrics.PassErrorEvent
}

func (r *recordingSink) RecordPass(ev coremetrics.PassEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = append(r.passes, ev)
	return nil
}

func (r *recordingSink) RecordPassError(ev coremetrics.PassErrorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, ev)
	return nil
}

type fakePublisher struct {
	mu    sync.Mutex
	plans [][]model.ActivityRecord
}

func (f *fakePublisher) PublishPlan(_ context.Context, _ string, recs []model.ActivityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, recs)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plans)
}

func writePlan(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "today.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestPassWritesBackOnce(t *testing.T) {
	path := writePlan(t, morning)
	svc := NewWithOptions(config.PlanConfig{Path: path, WriteBack: true}, Options{})

	ev, err := svc.Pass(context.Background(), SourceStartup)
	require.NoError(t, err)
	assert.True(t, ev.Changed)
	assert.Equal(t, 60, ev.SpanMinutes)
	assert.Equal(t, 2, ev.Fixed)
	assert.Equal(t, "60", ev.Records[1].ActualLength)

	p, err := plan.LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", p.Date)
	assert.Equal(t, ev.Records, p.Activities)

	ev, err = svc.Pass(context.Background(), SourceWatch)
	require.NoError(t, err)
	assert.False(t, ev.Changed)
}

func TestPassWithoutWriteBackLeavesFile(t *testing.T) {
	path := writePlan(t, morning)
	svc := NewWithOptions(config.PlanConfig{Path: path}, Options{})

	ev, err := svc.Pass(context.Background(), SourceStartup)
	require.NoError(t, err)
	assert.True(t, ev.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, morning, string(data))
}

func TestPassAssignsMissingIDs(t *testing.T) {
	path := writePlan(t, `activities:
  - {name: Start, length: "0", start: "08:00", fixed: x, actual: "0"}
  - {name: END, length: "0", start: "08:00", fixed: x, actual: "0"}
`)
	svc := NewWithOptions(config.PlanConfig{Path: path, WriteBack: true}, Options{})
	ev, err := svc.Pass(context.Background(), SourceStartup)
	require.NoError(t, err)
	assert.True(t, ev.Changed)
	for _, r := range ev.Records {
		assert.NotEmpty(t, r.ID)
	}
}

func TestPassFailures(t *testing.T) {
	short := writePlan(t, "activities:\n  - {id: a, length: \"5\", start: \"08:00\", fixed: x}\n")
	tests := []struct {
		name  string
		path  string
		stage string
	}{
		{"missing file", filepath.Join(t.TempDir(), "none.yaml"), StageLoad},
		{"single activity", short, StageValidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWithOptions(config.PlanConfig{Path: tt.path}, Options{})
			events := svc.Events()
			_, err := svc.Pass(context.Background(), SourceWatch)
			require.Error(t, err)
			ev := <-events
			assert.Equal(t, tt.stage, ev.Stage)
			assert.Error(t, ev.Err)
		})
	}

	svc := NewWithOptions(config.PlanConfig{Path: short}, Options{})
	_, err := svc.Pass(context.Background(), SourceWatch)
	assert.True(t, errors.Is(err, plan.ErrTooShort))
}

func TestDeliverFansOut(t *testing.T) {
	store, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	defer store.Close()
	sink := &recordingSink{}
	pub := &fakePublisher{}
	path := writePlan(t, morning)
	svc := NewWithOptions(config.PlanConfig{Path: path}, Options{Store: store, Sink: sink, Publisher: pub})

	ctx := context.Background()
	ev, err := svc.Pass(ctx, SourceStartup)
	require.NoError(t, err)
	svc.deliver(ctx, ev)
	svc.deliver(ctx, PlanEvent{Source: SourceWatch, Plan: path, Stage: StageLoad, Err: errors.New("boom"), Time: time.Now()})

	recs, err := store.Query(ctx, history.Query{ActivityID: "w"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceStartup, recs[0].Source)
	assert.Equal(t, 60, recs[0].SpanMinutes)

	require.Len(t, sink.passes, 1)
	assert.Equal(t, 3, sink.passes[0].Activities)
	assert.True(t, sink.passes[0].Changed)
	require.Len(t, sink.errs, 1)
	assert.Equal(t, StageLoad, sink.errs[0].Stage)
	assert.Equal(t, "boom", sink.errs[0].Err)

	assert.Equal(t, 1, pub.count())
}

func TestRunReactsToEdits(t *testing.T) {
	path := writePlan(t, morning)
	pub := &fakePublisher{}
	svc := NewWithOptions(config.PlanConfig{Path: path, DebounceMS: 20}, Options{Publisher: pub})
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	// the watcher registers right after the startup pass
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(morning), 0o644))
	require.Eventually(t, func() bool { return pub.count() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunScheduledPasses(t *testing.T) {
	path := writePlan(t, morning)
	pub := &fakePublisher{}
	svc := NewWithOptions(config.PlanConfig{Path: path, Cron: "@every 1s", Timezone: "UTC"}, Options{Publisher: pub})
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() >= 2 }, 4*time.Second, 10*time.Millisecond)
}

func TestRunRejectsBadCron(t *testing.T) {
	svc := NewWithOptions(config.PlanConfig{Path: writePlan(t, morning), Cron: "nope"}, Options{})
	defer svc.Close()
	assert.Error(t, svc.Run(context.Background()))
}

type warnLogger struct {
	corelogger.Nop
	mu    sync.Mutex
	warns []string
}

func (l *warnLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func TestSlowSubscriberDropsAreReported(t *testing.T) {
	log := &warnLogger{}
	svc := NewWithOptions(config.PlanConfig{Path: writePlan(t, morning)}, Options{Logger: log, EventBuffer: 1})
	defer svc.Close()
	events := svc.Events()

	_, err := svc.Pass(context.Background(), SourceWatch)
	require.NoError(t, err)
	assert.Zero(t, svc.DroppedEvents())
	assert.Empty(t, log.warns)

	_, err = svc.Pass(context.Background(), SourceWatch)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), svc.DroppedEvents())
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "dropped")

	ev := <-events
	assert.Equal(t, SourceWatch, ev.Source)
}

func TestDefaultEventBufferAbsorbsBursts(t *testing.T) {
	svc := NewWithOptions(config.PlanConfig{Path: writePlan(t, morning)}, Options{})
	defer svc.Close()
	_ = svc.Events()
	for i := 0; i < DefaultEventBuffer; i++ {
		_, err := svc.Pass(context.Background(), SourceCron)
		require.NoError(t, err)
	}
	assert.Zero(t, svc.DroppedEvents())
}
