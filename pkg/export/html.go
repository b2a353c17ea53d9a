package export

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/powermatch/core/aggregate"
)

// Charts groups what an HTML report can show. Nil parts are skipped.
type Charts struct {
	Title   string
	Summary *aggregate.Summary
	// Trace and BestTrace are per-generation optimiser fitness.
	Trace     []float64
	BestTrace []float64
}

// WriteHTML renders the report as a standalone echarts page.
func WriteHTML(w io.Writer, c Charts) error {
	page := components.NewPage()
	page.PageTitle = c.Title
	if c.Summary != nil {
		page.AddCharts(generationChart(*c.Summary), lcoeChart(*c.Summary))
	}
	if len(c.Trace) > 0 {
		page.AddCharts(convergenceChart(c.Trace, c.BestTrace))
	}
	return page.Render(w)
}

func generationChart(s aggregate.Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Generation by resource"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MWh"}),
	)
	var names []string
	var gen []opts.BarData
	for _, r := range s.Rows {
		names = append(names, r.Name)
		gen = append(gen, opts.BarData{Value: r.Generation})
	}
	bar.SetXAxis(names).AddSeries("Generation", gen)
	return bar
}

func lcoeChart(s aggregate.Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "LCOE by resource", Subtitle: "System LCOE " + s.Totals.LCOE.String()}),
		charts.WithYAxisOpts(opts.YAxis{Name: "$/MWh"}),
	)
	var names []string
	var lcoe []opts.BarData
	for _, r := range s.Rows {
		if !r.LCOE.OK {
			continue
		}
		names = append(names, r.Name)
		lcoe = append(lcoe, opts.BarData{Value: r.LCOE.V})
	}
	bar.SetXAxis(names).AddSeries("LCOE", lcoe)
	return bar
}

func convergenceChart(trace, best []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Optimiser convergence"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Generation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Fitness"}),
	)
	x := make([]string, len(trace))
	for i := range trace {
		x[i] = strconv.Itoa(i)
	}
	line.SetXAxis(x).
		AddSeries("Generation best", lineData(trace)).
		AddSeries("Best ever", lineData(best))
	return line
}

func lineData(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, f := range v {
		out[i] = opts.LineData{Value: f}
	}
	return out
}
