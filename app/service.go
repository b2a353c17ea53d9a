package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/powermatch/app/plugins"
	"github.com/kilianp07/powermatch/auth"
	"github.com/kilianp07/powermatch/config"
	coremetrics "github.com/kilianp07/powermatch/core/metrics"
	coremon "github.com/kilianp07/powermatch/core/monitoring"
	"github.com/kilianp07/powermatch/core/optimize"
	"github.com/kilianp07/powermatch/core/powermatch"
	"github.com/kilianp07/powermatch/core/runlog"
	"github.com/kilianp07/powermatch/infra/input"
	"github.com/kilianp07/powermatch/infra/logger"
	"github.com/kilianp07/powermatch/infra/metrics"
	"github.com/kilianp07/powermatch/infra/monitoring"
	"github.com/kilianp07/powermatch/infra/mqtt"
	"github.com/kilianp07/powermatch/internal/eventbus"
)

// Constructors replaced in tests.
var (
	newMetricsSink = coremetrics.NewMetricsSink
	newPublisher   = mqtt.NewPublisher
)

const flushTimeout = 2 * time.Second

// Service wires a scenario to the metrics sinks, the MQTT publisher and the
// run store.
type Service struct {
	cfg       *config.Config
	scenario  *powermatch.Scenario
	store     runlog.Store
	sink      coremetrics.MetricsSink
	publisher *mqtt.Publisher
	monitor   coremon.Monitor
	bus       *eventbus.TypedBus[coremetrics.Event]
	collected <-chan struct{}
	stop      context.CancelFunc
	log       logger.Logger
}

// New loads the configured input files and creates a Service.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg.Inputs.Tables == "" || cfg.Inputs.Hourly == "" {
		return nil, errors.New("inputs.tables and inputs.hourly are required")
	}
	var src input.Source
	if cfg.Inputs.Auth.Enabled() {
		src.Cred = auth.NewClientCred(cfg.Inputs.Auth)
	}
	tables, err := src.Tables(ctx, cfg.Inputs.Tables)
	if err != nil {
		return nil, fmt.Errorf("tables %s: %w", cfg.Inputs.Tables, err)
	}
	hourly, err := src.Hourly(ctx, cfg.Inputs.Hourly)
	if err != nil {
		return nil, fmt.Errorf("hourly %s: %w", cfg.Inputs.Hourly, err)
	}
	return NewWithInputs(cfg, powermatch.Inputs{Tables: tables, Hourly: hourly})
}

// NewWithInputs creates a Service from already loaded inputs.
func NewWithInputs(cfg *config.Config, in powermatch.Inputs) (*Service, error) {
	logg := logger.New("service")
	if in.Logger == nil {
		in.Logger = logger.New("powermatch")
	}
	sc, err := powermatch.NewScenario(in)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	sink, err := newMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		closeSink(sink)
		_ = store.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	s := &Service{cfg: cfg, scenario: sc, store: store, sink: sink, monitor: mon, log: logg}
	if cfg.MQTT.Enabled {
		pub, err := newPublisher(cfg.MQTT)
		if err != nil {
			closeSink(sink)
			mon.Flush(flushTimeout)
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		s.publisher = pub
		s.sink = coremetrics.NewMultiSink(sink, pub)
	}
	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.bus = eventbus.NewTyped[coremetrics.Event](eventbus.WithBuffer(1024))
	s.collected = metrics.StartEventCollector(ctx, s.bus, s.sink)
	return s, nil
}

// OpenStore opens the configured run store.
func OpenStore(cfg *config.Config) (runlog.Store, error) {
	st, err := plugins.OpenRunStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}
	return st, nil
}

// Scenario returns the loaded scenario.
func (s *Service) Scenario() *powermatch.Scenario { return s.scenario }

// ServeMetrics serves Prometheus metrics until ctx is done when an address
// is configured.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Run performs a single pass, records it and returns the stored record
// together with the full report.
func (s *Service) Run(ctx context.Context, params powermatch.Params, progress powermatch.ProgressFunc) (runlog.Record, *powermatch.Report, error) {
	id := uuid.NewString()
	rep, err := s.scenario.Run(params, s.forward(id, progress))
	if err != nil {
		s.monitor.CaptureException(err, coremon.RunTags(id, string(coremetrics.KindPowermatch)))
		return runlog.Record{}, nil, err
	}
	rec := runlog.Record{
		ID:        id,
		Kind:      coremetrics.KindPowermatch,
		Timestamp: time.Now().UTC(),
		Tables:    s.cfg.Inputs.Tables,
		Hourly:    s.cfg.Inputs.Hourly,
		Params:    rep.Params,
		Summary:   rep.Summary,
		Warnings:  rep.Warnings,
		Elapsed:   runlog.JSONDuration(rep.Elapsed),
	}
	s.record(coremetrics.SummaryEvent{RunID: id, Kind: rec.Kind, Summary: rep.Summary, Duration: rep.Elapsed, Time: rec.Timestamp})
	return rec, rep, s.save(ctx, rec)
}

// Optimise runs the capacity optimiser, records the result and returns the
// stored record together with the full report. A cancel request received
// over MQTT stops the search at the next generation.
func (s *Service) Optimise(ctx context.Context, params powermatch.Params, cfg optimize.Config, progress powermatch.ProgressFunc) (runlog.Record, *powermatch.OptimiseReport, error) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.publisher != nil {
		defer s.publisher.OnCancel(id, cancel)()
	}
	s.log.Infof("optimise run %s", id)
	rep, err := s.scenario.Optimise(ctx, params, cfg, s.forward(id, progress))
	if err != nil {
		s.monitor.CaptureException(err, coremon.RunTags(id, string(coremetrics.KindOptimise)))
		return runlog.Record{}, nil, err
	}
	for _, w := range rep.Warnings {
		s.log.Warnf("optimise %s: %s", id, w)
	}
	rec := runlog.Record{
		ID:        id,
		Kind:      coremetrics.KindOptimise,
		Timestamp: time.Now().UTC(),
		Tables:    s.cfg.Inputs.Tables,
		Hourly:    s.cfg.Inputs.Hourly,
		Params:    rep.Params,
		Summary:   rep.Summary,
		Optimise: &runlog.Optimise{
			Seed:        rep.Config.Seed,
			Chromosome:  rep.Chromosome,
			Capacities:  rep.Capacities,
			Fitness:     rep.Fitness,
			Generations: rep.Generations,
			Evaluations: rep.Evaluations,
			Stop:        rep.Stop.String(),
			BestTrace:   rep.BestTrace,
		},
		Warnings: rep.Warnings,
		Elapsed:  runlog.JSONDuration(rep.Elapsed),
	}
	s.record(coremetrics.SummaryEvent{RunID: id, Kind: rec.Kind, Summary: rep.Summary, Duration: rep.Elapsed, Time: rec.Timestamp})
	s.record(coremetrics.OptimiseEvent{
		RunID:       id,
		Fitness:     rep.Fitness,
		Generations: rep.Generations,
		Evaluations: rep.Evaluations,
		Stop:        rep.Stop.String(),
		Capacities:  rep.Capacities.Map(),
		Warnings:    len(rep.Warnings),
		Duration:    rep.Elapsed,
		Time:        rec.Timestamp,
	})
	return rec, rep, s.save(ctx, rec)
}

// forward publishes progress on the bus before handing it to progress.
func (s *Service) forward(id string, progress powermatch.ProgressFunc) powermatch.ProgressFunc {
	return func(p powermatch.Progress) {
		now := time.Now()
		switch p.Stage {
		case powermatch.StageDispatch:
			s.bus.Publish(coremetrics.DispatchStepEvent{RunID: id, Unit: p.Unit, Index: p.Index, Total: p.Total, Time: now})
		case powermatch.StageOptimise:
			if g := p.Generation; g != nil {
				s.bus.Publish(coremetrics.GenerationEvent{
					RunID:       id,
					Generation:  g.Generation,
					Best:        g.Best,
					BestEver:    g.BestEver,
					Mean:        g.Mean,
					Evaluations: g.Evaluations,
					Elapsed:     g.Elapsed,
					Time:        now,
				})
			}
		}
		if progress != nil {
			progress(p)
		}
	}
}

// record sends final events straight to the sink; the bus may drop them.
func (s *Service) record(ev coremetrics.Event) {
	if err := coremetrics.Record(s.sink, ev); err != nil {
		s.log.Warnf("record %T: %v", ev, err)
	}
}

func (s *Service) save(ctx context.Context, rec runlog.Record) error {
	// A cancelled optimisation still returns its best result; persist it.
	if err := s.store.Append(context.WithoutCancel(ctx), rec); err != nil {
		err = fmt.Errorf("save run %s: %w", rec.ID, err)
		s.monitor.CaptureException(err, coremon.RunTags(rec.ID, string(rec.Kind)))
		return err
	}
	return nil
}

// Close stops the collector and releases the store and MQTT connection.
func (s *Service) Close() error {
	s.bus.Close()
	<-s.collected
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d progress events dropped by a slow sink", n)
	}
	s.stop()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	closeSink(s.sink)
	s.monitor.Flush(flushTimeout)
	return s.store.Close()
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}
