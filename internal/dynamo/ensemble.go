package dynamo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// StepperFactory builds an independent stepper for one case.
type StepperFactory func() (Stepper, error)

// Ensemble runs several cases concurrently. Every case gets its own stepper
// and its own metric instances.
type Ensemble struct {
	factory    StepperFactory
	integrator Integrator
	metrics    func() []Metric
	workers    int
	logger     *slog.Logger
}

func NewEnsemble(factory StepperFactory, integrator Integrator, metrics func() []Metric) *Ensemble {
	return &Ensemble{
		factory:    factory,
		integrator: integrator,
		metrics:    metrics,
		workers:    runtime.GOMAXPROCS(0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetWorkers bounds the number of concurrent runs.
func (e *Ensemble) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

func (e *Ensemble) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Run returns one result per case, in case order. The first failing case
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cases []Case, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(cases))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range cases {
		i := i
		g.Go(func() error {
			stepper, err := e.factory()
			if err != nil {
				return fmt.Errorf("case %q: %w", cases[i].Name, err)
			}

			sim := New(stepper, e.integrator)
			sim.SetLogger(e.logger)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					sim.AddMetric(m)
				}
			}

			res, err := sim.Run(ctx, cases[i], cfg)
			results[i] = res
			if err != nil {
				return fmt.Errorf("case %q: %w", cases[i].Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
