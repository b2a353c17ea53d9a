package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordSummary(SummaryEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordGeneration(GenerationEvent) error {
	r.count++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks and optional
// recorders are skipped when a sink lacks them.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordSummary(SummaryEvent{}); err != nil {
		t.Fatalf("record summary: %v", err)
	}
	if err := m.RecordGeneration(GenerationEvent{}); err != nil {
		t.Fatalf("record generation: %v", err)
	}
	if err := m.RecordOptimise(OptimiseEvent{}); err != nil {
		t.Fatalf("record optimise: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
}

func TestRecord(t *testing.T) {
	s := &recordSink{}
	for _, ev := range []Event{SummaryEvent{}, GenerationEvent{}, OptimiseEvent{}, DispatchStepEvent{}} {
		if err := Record(s, ev); err != nil {
			t.Fatalf("record %T: %v", ev, err)
		}
	}
	if s.count != 2 {
		t.Fatalf("expected summary and generation recorded, got %d", s.count)
	}
}
