package optimize

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/powermatch/core/encoder"
	"github.com/kilianp07/powermatch/core/logger"
)

// Fitness scores a chromosome; lower is better. Implementations must be
// safe for concurrent use.
type Fitness interface {
	Evaluate(ctx context.Context, c encoder.Chromosome) (float64, error)
}

// FitnessFunc adapts a function to Fitness.
type FitnessFunc func(ctx context.Context, c encoder.Chromosome) (float64, error)

func (f FitnessFunc) Evaluate(ctx context.Context, c encoder.Chromosome) (float64, error) {
	return f(ctx, c)
}

// StopReason explains why a run ended.
type StopReason int

const (
	StopCompleted StopReason = iota
	StopStable
	StopCancelled
)

func (s StopReason) String() string {
	switch s {
	case StopStable:
		return "stable"
	case StopCancelled:
		return "cancelled"
	default:
		return "completed"
	}
}

func (s StopReason) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Progress is a snapshot taken after each generation has been scored.
// Generation 0 is the initial population.
type Progress struct {
	Generation  int
	Generations int
	Best        float64
	BestEver    float64
	Mean        float64
	Evaluations int
	Chromosome  string
	Elapsed     time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Best        encoder.Chromosome
	BestFitness float64
	// Final is the best chromosome of the last scored generation, which may
	// be worse than Best since there is no elitism.
	Final        encoder.Chromosome
	FinalFitness float64
	// Trace holds the population best per generation, BestTrace the
	// best-ever value at the same point. Both start with generation 0.
	Trace       []float64
	BestTrace   []float64
	Generations int
	Evaluations int
	Seed        int64
	Stop        StopReason
	Elapsed     time.Duration
	Warnings    []string
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) { o.log = logger.OrNop(l) }
}

// WithProgress registers a callback invoked once per generation from the
// coordinating goroutine. It must not block.
func WithProgress(fn func(Progress)) Option {
	return func(o *Optimizer) { o.progress = fn }
}

// Optimizer is a crossover-only genetic algorithm over boolean chromosomes.
type Optimizer struct {
	cfg      Config
	fitness  Fitness
	log      logger.Logger
	progress func(Progress)
	rng      *rand.Rand
	now      func() time.Time
}

// New creates an Optimizer. Zero config values take their defaults; a zero
// Seed is replaced with a time based one and reported in the Result.
func New(cfg Config, fitness Fitness, opts ...Option) *Optimizer {
	cfg.SetDefaults()
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	o := &Optimizer{
		cfg:     cfg,
		fitness: fitness,
		log:     logger.Nop{},
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// Run evolves chromosomes of the given length. Cancelling ctx stops the run
// at the next generation boundary and returns the best chromosome found so
// far; only a cancellation before the first population is scored is an
// error.
func (o *Optimizer) Run(ctx context.Context, length int) (*Result, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.fitness == nil {
		return nil, errors.New("optimize: nil fitness")
	}
	if length < 0 {
		return nil, fmt.Errorf("optimize: negative chromosome length %d", length)
	}
	start := o.now()
	size := o.cfg.PopulationSize &^ 1
	res := &Result{Seed: o.cfg.Seed}

	pop := o.initial(size, length)
	scores, err := o.evaluate(ctx, pop)
	if err != nil {
		return nil, err
	}
	res.Evaluations += len(pop)
	genBest := o.record(res, pop, scores)
	o.report(res, 0, scores, start)

	stableValue, stable := genBest, 1
	for gen := 1; gen <= o.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			break
		}
		next := o.breed(pop, scores)
		nextScores, err := o.evaluate(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				break
			}
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		pop, scores = next, nextScores
		res.Evaluations += len(pop)
		res.Generations = gen
		genBest = o.record(res, pop, scores)
		o.report(res, gen, scores, start)

		if o.cfg.StopThreshold > 0 {
			if genBest == stableValue {
				stable++
				if stable >= o.cfg.StopThreshold {
					res.Stop = StopStable
					break
				}
			} else {
				stableValue, stable = genBest, 1
			}
		}
	}

	res.Elapsed = o.now().Sub(start)
	o.warn(res)
	o.log.Infof("optimise %s after %d generations: best %.4f final %.4f (%d evaluations, %s)",
		res.Stop, res.Generations, res.BestFitness, res.FinalFitness, res.Evaluations, res.Elapsed)
	return res, nil
}

// initial builds chromosomes with a uniformly random number of set genes
// placed at random positions.
func (o *Optimizer) initial(size, length int) []encoder.Chromosome {
	pop := make([]encoder.Chromosome, size)
	for i := range pop {
		c := make(encoder.Chromosome, length)
		ones := o.rng.Intn(length + 1)
		for j := 0; j < ones; j++ {
			c[j] = true
		}
		o.rng.Shuffle(length, func(a, b int) { c[a], c[b] = c[b], c[a] })
		pop[i] = c
	}
	return pop
}

func (o *Optimizer) evaluate(ctx context.Context, pop []encoder.Chromosome) ([]float64, error) {
	scores := make([]float64, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, c := range pop {
		g.Go(func() error {
			f, err := o.fitness.Evaluate(gctx, c)
			if err != nil {
				return fmt.Errorf("chromosome %d: %w", i, err)
			}
			scores[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// breed replaces the population with children of tournament winners.
func (o *Optimizer) breed(pop []encoder.Chromosome, scores []float64) []encoder.Chromosome {
	next := make([]encoder.Chromosome, 0, len(pop))
	for len(next) < len(pop) {
		p1 := pop[o.tournament(scores)]
		p2 := pop[o.tournament(scores)]
		c1, c2 := o.crossover(p1, p2)
		next = append(next, c1, c2)
	}
	return next
}

// tournament draws two distinct individuals; the lower score wins and
// ties go to the first draw.
func (o *Optimizer) tournament(scores []float64) int {
	a := o.rng.Intn(len(scores))
	b := o.rng.Intn(len(scores) - 1)
	if b >= a {
		b++
	}
	if scores[a] <= scores[b] {
		return a
	}
	return b
}

// crossover swaps tails at a point strictly inside the chromosome.
// Chromosomes shorter than two genes are copied.
func (o *Optimizer) crossover(p1, p2 encoder.Chromosome) (encoder.Chromosome, encoder.Chromosome) {
	c1, c2 := p1.Clone(), p2.Clone()
	if len(p1) < 2 {
		return c1, c2
	}
	point := 1 + o.rng.Intn(len(p1)-1)
	copy(c1[point:], p2[point:])
	copy(c2[point:], p1[point:])
	return c1, c2
}

// record appends the generation to the traces and updates best-ever.
func (o *Optimizer) record(res *Result, pop []encoder.Chromosome, scores []float64) float64 {
	i := floats.MinIdx(scores)
	best := scores[i]
	res.Final, res.FinalFitness = pop[i].Clone(), best
	if res.Best == nil || best < res.BestFitness {
		res.Best, res.BestFitness = pop[i].Clone(), best
	}
	res.Trace = append(res.Trace, best)
	res.BestTrace = append(res.BestTrace, res.BestFitness)
	return best
}

func (o *Optimizer) report(res *Result, gen int, scores []float64, start time.Time) {
	p := Progress{
		Generation:  gen,
		Generations: o.cfg.Generations,
		Best:        res.FinalFitness,
		BestEver:    res.BestFitness,
		Mean:        stat.Mean(scores, nil),
		Evaluations: res.Evaluations,
		Chromosome:  res.Best.String(),
		Elapsed:     o.now().Sub(start),
	}
	o.log.Debugw("generation scored", map[string]any{
		"generation": p.Generation,
		"best":       p.Best,
		"best_ever":  p.BestEver,
		"mean":       p.Mean,
	})
	if o.progress != nil {
		o.progress(p)
	}
}

func (o *Optimizer) warn(res *Result) {
	if res.BestFitness >= o.cfg.Penalty {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no candidate met the full load (best fitness %.2f); try more generations", res.BestFitness))
	}
	if res.FinalFitness > res.BestFitness {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("final generation best %.2f is worse than best found %.2f; try more generations", res.FinalFitness, res.BestFitness))
	}
	for _, w := range res.Warnings {
		o.log.Warnf("optimise: %s", w)
	}
}
