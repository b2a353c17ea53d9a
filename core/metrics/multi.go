package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSummary forwards the summary to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSummary(ev SummaryEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSummary(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordGeneration forwards generations to sinks that record them.
func (m *MultiSink) RecordGeneration(ev GenerationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(GenerationRecorder); ok {
			if err := rec.RecordGeneration(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOptimise forwards optimisation results.
func (m *MultiSink) RecordOptimise(ev OptimiseEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OptimiseRecorder); ok {
			if err := rec.RecordOptimise(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDispatchStep forwards single-pass progress.
func (m *MultiSink) RecordDispatchStep(ev DispatchStepEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DispatchStepRecorder); ok {
			if err := rec.RecordDispatchStep(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
