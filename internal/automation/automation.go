package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/experiment"
	"github.com/san-kum/twotemp/internal/storage"
)

// Scenario defines a scripted sequence of heat-bath runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a preset plus config overrides, for example
//
//	- name: hot
//	  preset: park
//	  config: {ttr: 18000, steps: 2000}
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

// StepResult is one finished scenario step. RunID is empty without a store.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve returns the step's config: the preset (heatbath when empty) with
// the overrides decoded on top. An overriding composition replaces the
// preset's.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "heatbath"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}

	if !s.Config.IsZero() {
		defaults := cfg.Composition
		cfg.Composition = nil
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
		if cfg.Composition == nil {
			cfg.Composition = defaults
		}
	}

	if s.Name != "" {
		cfg.Name = s.Name
	}
	return cfg, nil
}

// Runner executes scenarios, saving every run when a store is set.
type Runner struct {
	Store   *storage.Store
	Options []experiment.Option
	Logger  *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RunScenario executes all steps in order and stops at the first failure.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	log := r.logger()
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "case", cfg.Name)

		exp, err := experiment.New(cfg, r.Options...)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: cfg.Name, Result: res}
		if r.Store != nil {
			id, err := r.Store.Save(exp.Record(res))
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep varies one initial temperature over a range
type ParameterSweep struct {
	Base      *config.Config
	ParamName string // ttr or tv
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Workers   int
}

// SweepResult holds the outcome for one parameter value
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	Tau        float64
	Drift      float64
}

func (sw *ParameterSweep) points() ([]experiment.Point, []float64, error) {
	if sw.NumSteps < 1 {
		return nil, nil, fmt.Errorf("sweep needs at least one step")
	}
	paramStep := 0.0
	if sw.NumSteps > 1 {
		paramStep = (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	}

	points := make([]experiment.Point, sw.NumSteps)
	values := make([]float64, sw.NumSteps)
	for i := range points {
		v := sw.ParamMin + float64(i)*paramStep
		p := experiment.Point{Ttr: sw.Base.Ttr, Tv: sw.Base.Tv}
		switch sw.ParamName {
		case "ttr":
			p.Ttr = v
		case "tv":
			p.Tv = v
		default:
			return nil, nil, fmt.Errorf("cannot sweep %q", sw.ParamName)
		}
		points[i], values[i] = p, v
	}
	return points, values, nil
}

// RunSweep executes a parameter sweep
func (r *Runner) RunSweep(ctx context.Context, sw *ParameterSweep) ([]SweepResult, error) {
	points, values, err := sw.points()
	if err != nil {
		return nil, err
	}

	runs, err := experiment.Sweep(ctx, sw.Base, points, sw.Workers, r.Options...)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, res := range runs {
		results[i] = SweepResult{
			ParamValue: values[i],
			FinalState: res.Final,
			Tau:        relaxationTau(res),
			Drift:      res.Metrics["energy_balance"],
		}
	}
	r.logger().Info("sweep finished", "param", sw.ParamName, "points", len(results))
	return results, nil
}

func relaxationTau(res *dynamo.Result) float64 {
	if tau, ok := res.Metrics["relaxation_tau"]; ok {
		return tau
	}
	return 0
}

// MonteCarloConfig perturbs the initial temperatures of Base
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64 // relative, e.g. 0.1 for +-10%
	NumTrials    int
	Workers      int
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID    int
	Init       experiment.Point
	FinalState dynamo.State
	Stable     bool // stayed inside the solver bounds the whole run
}

// RunMonteCarlo runs NumTrials randomly perturbed copies of Base
func (r *Runner) RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	points := make([]experiment.Point, mc.NumTrials)
	for i := range points {
		points[i] = experiment.Point{
			Ttr: mc.Base.Ttr * (1 + (rng.Float64()-0.5)*2*mc.Perturbation),
			Tv:  mc.Base.Tv * (1 + (rng.Float64()-0.5)*2*mc.Perturbation),
		}
	}

	runs, err := experiment.Sweep(ctx, mc.Base, points, mc.Workers, r.Options...)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		results[i] = MonteCarloResult{
			TrialID:    i,
			Init:       points[i],
			FinalState: res.Final,
			Stable:     res.Final.IsValid() && res.Metrics["stability"] == 1,
		}
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
