package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/kilianp07/powermatch/core/powermatch"
	"github.com/kilianp07/powermatch/pkg/export"
)

var optimiseFlags struct {
	population  int
	generations int
	stop        int
	workers     int
	seed        int64
	penalty     float64
	carbonPrice float64
	loadMult    float64
	format      string
	output      string
	quiet       bool
}

var optimiseCmd = &cobra.Command{
	Use:     "optimise",
	Aliases: []string{"optimize"},
	Short:   "Search the capacities that minimise system LCOE while meeting the load",
	Args:    cobra.NoArgs,
	RunE:    runOptimise,
}

func init() {
	f := optimiseCmd.Flags()
	f.IntVarP(&optimiseFlags.population, "population", "p", 0, "population size, overrides optimise.population")
	f.IntVarP(&optimiseFlags.generations, "generations", "g", 0, "generation limit, overrides optimise.generations")
	f.IntVar(&optimiseFlags.stop, "stop", 0, "stop after this many generations without change in the best fitness")
	f.IntVar(&optimiseFlags.workers, "workers", 0, "parallel fitness evaluations")
	f.Int64Var(&optimiseFlags.seed, "seed", 0, "random seed, 0 picks one from the clock")
	f.Float64Var(&optimiseFlags.penalty, "penalty", 0, "fitness of candidates that leave load unmet")
	f.Float64Var(&optimiseFlags.carbonPrice, "carbon-price", 0, "carbon price in $/tCO2e")
	f.Float64Var(&optimiseFlags.loadMult, "load-multiplier", 0, "load scale factor")
	f.StringVarP(&optimiseFlags.format, "format", "f", "text", "output format: text, csv, json or html")
	f.StringVarP(&optimiseFlags.output, "output", "o", "", "output file (default stdout)")
	f.BoolVarP(&optimiseFlags.quiet, "quiet", "q", false, "hide the progress bar")
	rootCmd.AddCommand(optimiseCmd)
}

func runOptimise(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fl := cmd.Flags()
	params := cfg.Powermatch
	if fl.Changed("carbon-price") {
		params.CarbonPrice = optimiseFlags.carbonPrice
	}
	if fl.Changed("load-multiplier") {
		params.LoadMultiplier = optimiseFlags.loadMult
	}
	oc := cfg.Optimise
	if fl.Changed("population") {
		oc.PopulationSize = optimiseFlags.population
	}
	if fl.Changed("generations") {
		oc.Generations = optimiseFlags.generations
	}
	if fl.Changed("stop") {
		oc.StopThreshold = optimiseFlags.stop
	}
	if fl.Changed("workers") {
		oc.Workers = optimiseFlags.workers
	}
	if fl.Changed("seed") {
		oc.Seed = optimiseFlags.seed
	}
	if fl.Changed("penalty") {
		oc.Penalty = optimiseFlags.penalty
	}
	oc.SetDefaults()
	if err := oc.Validate(); err != nil {
		return err
	}

	svc, closeSvc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()
	svc.ServeMetrics(ctx)

	var bar *pb.ProgressBar
	var progress powermatch.ProgressFunc
	if !optimiseFlags.quiet {
		bar = pb.New(oc.Generations + 1)
		bar.Output = os.Stderr
		bar.ShowSpeed = false
		bar.Prefix("generation ")
		bar.Start()
		progress = func(p powermatch.Progress) {
			if g := p.Generation; g != nil {
				bar.Postfix(fmt.Sprintf(" best %.2f", g.BestEver))
				bar.Increment()
			}
		}
	}
	rec, rep, err := svc.Optimise(ctx, params, oc, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "run %s: fitness %.4f after %d generations (%s, seed %d)\n",
		rec.ID, rep.Fitness, rep.Generations, rep.Stop, rep.Config.Seed)
	caps := rep.Capacities.Map()
	names := make([]string, 0, len(caps))
	for n := range caps {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %-24s %10.1f MW\n", n, caps[n])
	}
	return withOutput(optimiseFlags.output, func(w io.Writer) error {
		return writeReport(w, optimiseFlags.format, rep, rep.Summary, export.Charts{
			Title:     "powermatch optimise " + rec.ID,
			Trace:     rep.Trace,
			BestTrace: rep.BestTrace,
		})
	})
}
