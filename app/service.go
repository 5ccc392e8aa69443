package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/core/history"
	corelogger "github.com/kilianp07/dayplan/core/logger"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/plan"
	"github.com/kilianp07/dayplan/core/scheduler"
	"github.com/kilianp07/dayplan/infra/logger"
	"github.com/kilianp07/dayplan/infra/metrics"
	"github.com/kilianp07/dayplan/infra/mqtt"
	"github.com/kilianp07/dayplan/internal/eventbus"
	"github.com/kilianp07/dayplan/internal/watch"
)

// Pass sources.
const (
	SourceStartup = "startup"
	SourceWatch   = "watch"
	SourceCron    = "cron"
)

// DefaultEventBuffer is how many pass events may wait for delivery before
// new ones are dropped.
const DefaultEventBuffer = 64

// Failure stages reported in PlanEvent.Stage.
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageWrite    = "write"
)

// PlanEvent is published on the bus after every pass, successful or not.
type PlanEvent struct {
	Source      string
	Plan        string
	Records     []model.ActivityRecord
	Changed     bool
	SpanMinutes int
	Fixed       int
	Rigid       int
	Duration    time.Duration
	Time        time.Time
	// Stage and Err are set when the pass failed.
	Stage string
	Err   error
}

// Publisher broadcasts resolved plans.
type Publisher interface {
	PublishPlan(ctx context.Context, plan string, recs []model.ActivityRecord) error
}

// Options carries the collaborators of a Service. Nil fields are skipped.
type Options struct {
	Store     history.Store
	Sink      coremetrics.Sink
	Publisher Publisher
	Logger    logger.Logger
	// PrometheusAddr starts a /metrics endpoint when set.
	PrometheusAddr string
	// EventBuffer overrides DefaultEventBuffer.
	EventBuffer int
}

// Service keeps a plan file resolved: it runs a pass on start and after
// every edit, then fans the result out to history, metrics and MQTT.
type Service struct {
	cfg       config.PlanConfig
	store     history.Store
	sink      coremetrics.Sink
	publisher Publisher
	bus       *eventbus.Bus[PlanEvent]
	log       logger.Logger
	promAddr  string
	closers   []func() error

	passMu sync.Mutex
}

// New creates a Service and its collaborators from the configuration.
func New(cfg *config.Config) (*Service, error) {
	opts := Options{Logger: logger.New("service"), PrometheusAddr: cfg.Metrics.PrometheusAddr}
	var closers []func() error

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	if store != nil {
		opts.Store = store
		closers = append(closers, store.Close)
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	opts.Sink = sink
	closers = append(closers, func() error { return coremetrics.Close(sink) })

	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		opts.Publisher = pub
		closers = append(closers, func() error { pub.Disconnect(); return nil })
	}

	svc := NewWithOptions(cfg.Plan, opts)
	svc.closers = closers
	return svc, nil
}

// NewWithOptions creates a Service from explicit collaborators.
func NewWithOptions(cfg config.PlanConfig, opts Options) *Service {
	cfg.SetDefaults()
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Service{
		cfg:       cfg,
		store:     opts.Store,
		sink:      opts.Sink,
		publisher: opts.Publisher,
		bus:       eventbus.NewBuffered[PlanEvent](buffer),
		log:       corelogger.OrNop(opts.Logger),
		promAddr:  opts.PrometheusAddr,
	}
}

// Events subscribes to the outcome of every pass.
func (s *Service) Events() <-chan PlanEvent { return s.bus.Subscribe() }

// Run resolves the plan once, then again after every edit, until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	events := s.bus.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			s.deliver(ctx, ev)
		}
	}()
	defer func() {
		s.bus.Unsubscribe(events)
		wg.Wait()
	}()

	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cfg.Cron != "" {
		c, err := s.startCron(ctx)
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()
	}

	if _, err := s.Pass(ctx, SourceStartup); err != nil {
		s.log.Warnf("initial pass: %v", err)
	}
	w := watch.New(s.cfg.Path, s.cfg.Debounce(), s.log)
	return w.Run(ctx, func(ctx context.Context) {
		if _, err := s.Pass(ctx, SourceWatch); err != nil {
			s.log.Warnf("pass: %v", err)
		}
	})
}

func (s *Service) startCron(ctx context.Context) (*cron.Cron, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, err
	}
	c := cron.New(cron.WithParser(config.CronParser), cron.WithLocation(loc))
	_, err = c.AddFunc(s.cfg.Cron, func() {
		if _, err := s.Pass(ctx, SourceCron); err != nil {
			s.log.Warnf("scheduled pass: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", s.cfg.Cron, err)
	}
	c.Start()
	s.log.Debugf("scheduled passes %q in %s", s.cfg.Cron, loc)
	return c, nil
}

// Pass loads, resolves and optionally writes back the plan file. The
// outcome is published on the event bus. Passes never overlap.
func (s *Service) Pass(ctx context.Context, source string) (PlanEvent, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	started := time.Now()
	ev := PlanEvent{Source: source, Plan: s.cfg.Path, Time: started}
	fail := func(stage string, err error) (PlanEvent, error) {
		ev.Stage, ev.Err = stage, err
		ev.Duration = time.Since(started)
		s.publish(ev)
		return ev, fmt.Errorf("%s %s: %w", stage, s.cfg.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return ev, err
	}

	p, err := plan.LoadPlan(s.cfg.Path)
	if err != nil {
		return fail(StageLoad, err)
	}
	idsAssigned := p.EnsureIDs()
	if err := p.Validate(); err != nil {
		return fail(StageValidate, err)
	}

	sched := scheduler.New(p.Activities)
	out := sched.Records()
	ev.Records = out
	ev.Changed = idsAssigned || !slices.Equal(out, p.Activities)
	ev.SpanMinutes = sched.LastAnchorMinute() - sched.FirstAnchorMinute()
	for _, a := range sched.Activities() {
		if a.IsFixed {
			ev.Fixed++
		}
		if a.IsRigid {
			ev.Rigid++
		}
	}

	if ev.Changed && s.cfg.WriteBack {
		if err := plan.SavePlan(s.cfg.Path, plan.Plan{Date: p.Date, Activities: out}); err != nil {
			return fail(StageWrite, err)
		}
		s.log.Infof("plan %s rewritten (%d activities, span %d min)", s.cfg.Path, len(out), ev.SpanMinutes)
	}
	ev.Duration = time.Since(started)
	s.publish(ev)
	return ev, nil
}

// publish hands ev to the subscribers and reports subscribers that fell
// behind, whose copy of ev is lost.
func (s *Service) publish(ev PlanEvent) {
	before := s.bus.Dropped()
	s.bus.Publish(ev)
	if after := s.bus.Dropped(); after > before {
		s.log.Warnf("pass event for %s dropped by %d slow subscriber(s), %d dropped in total", ev.Plan, after-before, after)
	}
}

// DroppedEvents returns how many pass events subscribers missed.
func (s *Service) DroppedEvents() uint64 { return s.bus.Dropped() }

func (s *Service) deliver(ctx context.Context, ev PlanEvent) {
	if ev.Err != nil {
		s.recordError(ev)
		return
	}
	if s.store != nil {
		rec := history.PassRecord{
			Timestamp:   ev.Time,
			Source:      ev.Source,
			Plan:        ev.Plan,
			Changed:     ev.Changed,
			SpanMinutes: ev.SpanMinutes,
			Activities:  ev.Records,
		}
		if err := s.store.Append(ctx, rec); err != nil {
			s.log.Errorf("history append: %v", err)
		}
	}
	if s.sink != nil {
		pe := coremetrics.PassEvent{
			Source:      ev.Source,
			Plan:        ev.Plan,
			Activities:  len(ev.Records),
			Fixed:       ev.Fixed,
			Rigid:       ev.Rigid,
			SpanMinutes: ev.SpanMinutes,
			Changed:     ev.Changed,
			Duration:    ev.Duration,
			Time:        ev.Time,
		}
		if err := s.sink.RecordPass(pe); err != nil {
			s.log.Errorf("metrics: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPlan(ctx, ev.Plan, ev.Records); err != nil {
			s.log.Errorf("mqtt publish: %v", err)
		}
	}
}

func (s *Service) recordError(ev PlanEvent) {
	s.log.Debugw("pass failed", map[string]any{"plan": ev.Plan, "stage": ev.Stage, "source": ev.Source})
	rec, ok := s.sink.(coremetrics.PassErrorRecorder)
	if !ok {
		return
	}
	err := rec.RecordPassError(coremetrics.PassErrorEvent{
		Source: ev.Source,
		Plan:   ev.Plan,
		Stage:  ev.Stage,
		Err:    ev.Err.Error(),
		Time:   ev.Time,
	})
	if err != nil {
		s.log.Errorf("metrics: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return closeAll(s.closers)
}

func closeAll(closers []func() error) error {
	var first error
	for _, c := range closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
