package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/pkg/export"
)

// withOutput runs fn on the named file, or stdout when path is empty or "-".
func withOutput(path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeReport renders a summary-bearing report in the requested format.
// full is what the json format encodes.
func writeReport(w io.Writer, format string, full any, sum aggregate.Summary, charts export.Charts) error {
	switch format {
	case "text", "":
		return export.WriteSummaryText(w, sum)
	case "csv":
		return export.WriteSummaryCSV(w, sum)
	case "json":
		return export.WriteJSON(w, full)
	case "html":
		charts.Summary = &sum
		return export.WriteHTML(w, charts)
	default:
		return fmt.Errorf("unknown format %q (text, csv, json, html)", format)
	}
}

// parseAdjustments reads Name=multiplier pairs.
func parseAdjustments(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("adjustment %s=%s: %w", k, v, err)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}
