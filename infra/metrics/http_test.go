package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/powermatch/core/metrics"
)

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = s.RecordSummary(coremetrics.SummaryEvent{Kind: coremetrics.KindPowermatch, Summary: sampleSummary()})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `powermatch_resource_generation_mwh{resource="Gas"} 438000`) {
		t.Errorf("metrics output missing generation gauge:\n%s", body)
	}
}
