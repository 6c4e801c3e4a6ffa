package dynamo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type Simulator struct {
	stepper    Stepper
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger
}

func New(stepper Stepper, integrator Integrator) *Simulator {
	return &Simulator{
		stepper:    stepper,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run advances c for cfg.Steps flow steps. On cancellation or failure the
// partial result is returned together with the error.
func (s *Simulator) Run(ctx context.Context, c Case, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	capacity := 2
	if cfg.RecordEvery > 0 {
		capacity = cfg.Steps/cfg.RecordEvery + 2
	}
	result := &Result{
		Case:    c.Name,
		Samples: make([]Sample, 0, capacity),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := c.Init
	t := 0.0

	first := s.sample(&c, x, t)
	s.observe(first)
	result.Samples = append(result.Samples, first)

	s.logger.Info("run started",
		"case", c.Name,
		"integrator", s.integrator.Name(),
		"dt", cfg.Dt,
		"steps", cfg.Steps,
		"ttr", x.Ttr,
		"tv", x.Tv,
	)

	var runErr error
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}

		if err := s.integrator.Advance(s.stepper, &c, &x, cfg.Dt); err != nil {
			runErr = &SimulationError{Step: i, Time: t, State: x, Wrapped: err}
			break
		}

		if cfg.ValidateState && !x.IsValid() {
			runErr = &SimulationError{Step: i, Time: t, State: x, Wrapped: ErrInvalidState}
			break
		}

		t += cfg.Dt
		result.StepsTaken++

		smp := s.sample(&c, x, t)
		s.observe(smp)

		last := i == cfg.Steps-1
		if last || (cfg.RecordEvery > 0 && result.StepsTaken%cfg.RecordEvery == 0) {
			result.Samples = append(result.Samples, smp)
		}
	}

	result.Final = x
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		s.logger.Warn("run stopped", "case", c.Name, "steps", result.StepsTaken, "err", runErr)
		return result, runErr
	}

	s.logger.Info("run finished",
		"case", c.Name,
		"steps", result.StepsTaken,
		"ttr", x.Ttr,
		"tv", x.Tv,
	)
	return result, nil
}

func (s *Simulator) sample(c *Case, x State, t float64) Sample {
	return Sample{Time: t, State: x, Pressure: s.stepper.Pressure(c.Rho, c.Y, x.Ttr)}
}

func (s *Simulator) observe(smp Sample) {
	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, obs := range s.observers {
		obs.OnStep(smp)
	}
}
