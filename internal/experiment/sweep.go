package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/metrics"
)

// Point is one initial temperature pair of a sweep.
type Point struct {
	Ttr float64
	Tv  float64
}

// Sweep runs base once per initial point, concurrently, each case on its own
// mixture. Results come back in point order and carry relaxation_tau like
// Experiment.Run.
func Sweep(ctx context.Context, base *config.Config, points []Point, workers int, opts ...Option) ([]*dynamo.Result, error) {
	o := buildOptions(opts)

	cases := make([]dynamo.Case, len(points))
	var first *Setup
	for i, p := range points {
		cfg := base.Clone()
		cfg.Ttr, cfg.Tv = p.Ttr, p.Tv
		cfg.Name = fmt.Sprintf("%s_%g_%g", baseName(base), p.Ttr, p.Tv)

		setup, err := Build(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("sweep point %d: %w", i, err)
		}
		if first == nil {
			first = setup
		}
		cases[i] = setup.Case
	}
	if first == nil {
		return []*dynamo.Result{}, nil
	}

	factory := func() (dynamo.Stepper, error) {
		s, err := Build(base.Clone(), opts...)
		if err != nil {
			return nil, err
		}
		return s.Mixture, nil
	}

	ens := dynamo.NewEnsemble(factory, first.Integrator, metrics.Standard)
	ens.SetWorkers(workers)
	ens.SetLogger(o.logger)
	results, err := ens.Run(ctx, cases, first.Run)
	if err != nil {
		return results, err
	}
	for _, res := range results {
		addRelaxationTau(res, o.logger)
	}
	return results, nil
}

func baseName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return cfg.Mechanism
}
