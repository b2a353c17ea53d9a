package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powermatch/app"
	coremetrics "github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/core/runlog"
	"github.com/kilianp07/powermatch/pkg/export"
)

var runsFlags struct {
	kind   string
	limit  int
	since  time.Duration
	format string
	output string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored runs",
}

var runsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored runs, oldest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := runlog.Query{Kind: coremetrics.RunKind(runsFlags.kind), Limit: runsFlags.limit}
		if runsFlags.since > 0 {
			q.Start = time.Now().Add(-runsFlags.since)
		}
		var recs []runlog.Record
		if err := withStore(func(st runlog.Store) (err error) {
			recs, err = st.Query(cmd.Context(), q)
			return err
		}); err != nil {
			return err
		}
		return listRuns(os.Stdout, recs)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec runlog.Record
		if err := withStore(func(st runlog.Store) (err error) {
			rec, err = st.Get(cmd.Context(), args[0])
			return err
		}); err != nil {
			return err
		}
		return withOutput(runsFlags.output, func(w io.Writer) error {
			charts := export.Charts{Title: "powermatch " + rec.ID}
			if rec.Optimise != nil {
				charts.BestTrace = rec.Optimise.BestTrace
			}
			return writeReport(w, runsFlags.format, rec, rec.Summary, charts)
		})
	},
}

func init() {
	runsListCmd.Flags().StringVar(&runsFlags.kind, "kind", "", "filter by kind: powermatch or optimise")
	runsListCmd.Flags().IntVarP(&runsFlags.limit, "limit", "n", 0, "show only the newest N runs")
	runsListCmd.Flags().DurationVar(&runsFlags.since, "since", 0, "show runs newer than this age, e.g. 24h")
	runsShowCmd.Flags().StringVarP(&runsFlags.format, "format", "f", "text", "output format: text, csv, json or html")
	runsShowCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "", "output file (default stdout)")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func withStore(fn func(runlog.Store) error) error {
	st, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		_ = st.Close()
		return err
	}
	return st.Close()
}

func listRuns(w io.Writer, recs []runlog.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTIME\tLCOE\tLOAD MET\tFITNESS\tELAPSED")
	for _, r := range recs {
		fitness := "-"
		if r.Optimise != nil {
			fitness = fmt.Sprintf("%.4f", r.Optimise.Fitness)
		}
		met := "-"
		if v := r.Summary.Load.MetFraction(); v.OK {
			met = fmt.Sprintf("%.1f%%", 100*v.V)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Kind, r.Timestamp.Local().Format(time.DateTime), r.Summary.Totals.LCOE,
			met, fitness, time.Duration(r.Elapsed).Round(time.Millisecond))
	}
	return tw.Flush()
}
