package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/powermatch"
)

var summaryHeader = []string{
	"Facility", "Capacity (MW)", "Generation (MWh)", "Charged (MWh)", "CF",
	"Cost ($)", "LCOE ($/MWh)", "Emissions (tCO2e)",
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func round(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }

// fixed formats a Value to prec decimals, leaving blanks empty.
func fixed(v aggregate.Value, prec int) string {
	if !v.OK {
		return ""
	}
	return round(v.V, prec)
}

// summaryRecords renders the summary table: one row per resource, a total
// row, the carbon rows when a carbon price is set, then the load analysis.
func summaryRecords(s aggregate.Summary, format func(aggregate.Value) string) [][]string {
	plain := func(v float64) string { return format(aggregate.Of(v)) }
	out := [][]string{summaryHeader}
	for _, r := range s.Rows {
		charged := ""
		if r.Storage {
			charged = plain(r.Charged)
		}
		out = append(out, []string{
			r.Name, plain(r.Capacity), plain(r.Generation), charged,
			format(r.CapacityFactor), format(r.Cost), format(r.LCOE), format(r.Emissions),
		})
	}
	t := s.Totals
	out = append(out, []string{
		"Total", plain(t.Capacity), plain(t.Generation), "",
		format(t.CapacityFactor), plain(t.Cost), format(t.LCOE), plain(t.Emissions),
	})
	if t.CarbonPrice > 0 {
		out = append(out,
			[]string{fmt.Sprintf("Carbon cost (@ $%s/tCO2e)", num(t.CarbonPrice)), "", "", "", "", format(t.CarbonCost), "", ""},
			[]string{"Blended LCOE", "", "", "", "", "", format(t.BlendedLCOE), ""},
		)
	}
	l := s.Load
	out = append(out,
		[]string{"RE share", "", "", "", format(t.RenewableShare), "", "", ""},
		[]string{"Load", "", plain(l.Total), "", "", "", "", ""},
		[]string{"Load met", "", plain(l.Met), "", format(l.MetFraction()), "", "", ""},
		[]string{"Shortfall", strconv.Itoa(l.ShortfallHours) + " h", plain(l.Shortfall), "", format(l.ShortfallFraction()), "", "", ""},
		[]string{"Surplus", strconv.Itoa(l.SurplusHours) + " h", plain(l.Surplus), "", format(l.SurplusFraction()), "", "", ""},
	)
	return out
}

// WriteSummaryCSV writes the summary at full precision. Undefined metrics
// are empty cells.
func WriteSummaryCSV(w io.Writer, s aggregate.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(summaryRecords(s, aggregate.Value.String)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteSummaryText writes an aligned summary table for terminals.
func WriteSummaryText(w io.Writer, s aggregate.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	prec := func(v aggregate.Value) string { return fixed(v, 2) }
	for _, rec := range summaryRecords(s, prec) {
		for _, c := range rec {
			if _, err := fmt.Fprint(tw, c, "\t"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(tw); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteDetailCSV writes the hourly series of a detailed run: load, each
// resource's generation, storage balances, the residual after each unit and
// the final residual.
func WriteDetailCSV(w io.Writer, d *powermatch.Detail) error {
	if d == nil {
		return fmt.Errorf("run has no detail; enable detail mode")
	}
	header := []string{"Hour", "Load"}
	cols := [][]float64{d.Load}
	add := func(prefix string, series []powermatch.Series) {
		for _, s := range series {
			header = append(header, prefix+s.Name)
			cols = append(cols, s.Values)
		}
	}
	add("", d.Generation)
	add("Balance ", d.Balance)
	add("After ", d.After)
	header = append(header, "Residual")
	cols = append(cols, d.Residual)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for h := range d.Load {
		rec[0] = strconv.Itoa(h + 1)
		for i, c := range cols {
			rec[i+1] = ""
			if h < len(c) {
				rec[i+1] = round(c[h], 4)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStagesCSV writes the shortfall left after each dispatched unit.
func WriteStagesCSV(w io.Writer, d *powermatch.Detail) error {
	if d == nil {
		return fmt.Errorf("run has no detail; enable detail mode")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"unit", "shortfall_mwh", "shortfall_hours"}); err != nil {
		return err
	}
	for _, s := range d.Stages {
		if err := cw.Write([]string{s.Unit, num(s.Shortfall), strconv.Itoa(s.Hours)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
