package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powermatch/pkg/export"
)

var summaryFlags struct {
	carbonPrice    float64
	loadMultiplier float64
	adjust         map[string]string
	format         string
	output         string
	detailOut      string
	stagesOut      string
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Run one dispatch pass with table capacities and print the summary",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	f := summaryCmd.Flags()
	f.Float64Var(&summaryFlags.carbonPrice, "carbon-price", 0, "carbon price in $/tCO2e, overrides powermatch.carbon_price")
	f.Float64Var(&summaryFlags.loadMultiplier, "load-multiplier", 0, "load scale factor, overrides powermatch.load_multiplier")
	f.StringToStringVar(&summaryFlags.adjust, "adjust", nil, "capacity multipliers, e.g. --adjust 'Onshore Wind=1.5'")
	f.StringVarP(&summaryFlags.format, "format", "f", "text", "output format: text, csv, json or html")
	f.StringVarP(&summaryFlags.output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&summaryFlags.detailOut, "detail-out", "", "write the hourly detail CSV to this file")
	f.StringVar(&summaryFlags.stagesOut, "stages-out", "", "write the per-unit shortfall CSV to this file")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := cfg.Powermatch
	if cmd.Flags().Changed("carbon-price") {
		params.CarbonPrice = summaryFlags.carbonPrice
	}
	if cmd.Flags().Changed("load-multiplier") {
		params.LoadMultiplier = summaryFlags.loadMultiplier
	}
	adj, err := parseAdjustments(summaryFlags.adjust)
	if err != nil {
		return err
	}
	if adj != nil {
		params.Adjustments = adj
	}
	params.Detail = params.Detail || summaryFlags.detailOut != "" || summaryFlags.stagesOut != ""

	svc, closeSvc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()
	svc.ServeMetrics(ctx)

	rec, rep, err := svc.Run(ctx, params, nil)
	if err != nil {
		return err
	}
	for _, w := range rep.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if err := withOutput(summaryFlags.output, func(w io.Writer) error {
		return writeReport(w, summaryFlags.format, rep, rep.Summary, export.Charts{Title: "powermatch " + rec.ID})
	}); err != nil {
		return err
	}
	if summaryFlags.detailOut != "" {
		if err := withOutput(summaryFlags.detailOut, func(w io.Writer) error { return export.WriteDetailCSV(w, rep.Detail) }); err != nil {
			return err
		}
	}
	if summaryFlags.stagesOut != "" {
		if err := withOutput(summaryFlags.stagesOut, func(w io.Writer) error { return export.WriteStagesCSV(w, rep.Detail) }); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "run %s saved\n", rec.ID)
	return nil
}

