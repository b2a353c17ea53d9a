package monitoring

import (
	"sync"
	"time"
)

// Monitor reports failed runs to an error tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or a NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// RunTags labels an error with the run it belongs to.
func RunTags(runID, kind string) map[string]string {
	return map[string]string{"run_id": runID, "kind": kind}
}

// Capture is one error seen by a Recorder.
type Capture struct {
	Err  error
	Tags map[string]string
}

// Recorder keeps captured errors in memory.
type Recorder struct {
	mu       sync.Mutex
	captured []Capture
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.captured = append(r.captured, Capture{Err: err, Tags: tags})
	r.mu.Unlock()
}

func (r *Recorder) Flush(time.Duration) {}

// Captured returns a copy of the recorded errors.
func (r *Recorder) Captured() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Capture(nil), r.captured...)
}
