package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/storage"
)

const scenarioYAML = `
name: air-study
description: short runs
steps:
  - name: short-bath
    config:
      steps: 50
      record_every: 10
  - name: nitrogen-only
    preset: nitrogen
    config:
      steps: 30
      ttr: 9000
      composition: {N2: 1}
`

func shortConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Steps = 40
	cfg.RecordEvery = 10
	return cfg
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "air-study", sc.Name)
	require.Len(t, sc.Steps, 2)

	cfg, err := sc.Steps[0].Resolve()
	require.NoError(t, err)
	assert.Equal(t, "short-bath", cfg.Name)
	assert.Equal(t, 50, cfg.Steps)
	assert.Equal(t, 10, cfg.RecordEvery)
	assert.Equal(t, config.DefaultTtr, cfg.Ttr)
	assert.Equal(t, map[string]float64{"N2": 0.79, "O2": 0.21}, cfg.Composition)

	cfg, err = sc.Steps[1].Resolve()
	require.NoError(t, err)
	assert.Equal(t, "n2", cfg.Mechanism)
	assert.Equal(t, 9000.0, cfg.Ttr)
	assert.Equal(t, map[string]float64{"N2": 1}, cfg.Composition)
}

func TestResolveDoesNotTouchPresets(t *testing.T) {
	step := ScenarioStep{Preset: "park"}
	cfg, err := step.Resolve()
	require.NoError(t, err)
	cfg.Ttr = 1

	assert.Equal(t, 15000.0, config.GetPreset("park").Ttr)
}

func TestResolveUnknownPreset(t *testing.T) {
	_, err := ScenarioStep{Preset: "plasma"}.Resolve()
	assert.Error(t, err)
}

func TestParseScenarioEmpty(t *testing.T) {
	_, err := ParseScenario([]byte("name: nothing\n"))
	assert.Error(t, err)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 2)
}

func TestRunScenarioSaves(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	store := storage.New(t.TempDir())
	require.NoError(t, store.Init())
	r := &Runner{Store: store}

	results, err := r.RunScenario(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 50, results[0].Result.StepsTaken)
	assert.Equal(t, 30, results[1].Result.StepsTaken)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	meta, err := store.Load(results[1].RunID)
	require.NoError(t, err)
	assert.Equal(t, "nitrogen-only", meta.Case)
	assert.Equal(t, []string{"N2"}, meta.Species)
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc, err := ParseScenario([]byte(`
steps:
  - name: first
    config: {steps: 5}
  - preset: nope
  - name: never
`))
	require.NoError(t, err)

	r := &Runner{}
	results, err := r.RunScenario(context.Background(), sc)
	assert.ErrorContains(t, err, "step 2")
	require.Len(t, results, 1)
	assert.Equal(t, "first", results[0].Name)
	assert.Empty(t, results[0].RunID)
}

func TestRunSweep(t *testing.T) {
	r := &Runner{}
	results, err := r.RunSweep(context.Background(), &ParameterSweep{
		Base:      shortConfig(),
		ParamName: "ttr",
		ParamMin:  6000,
		ParamMax:  12000,
		NumSteps:  3,
		Workers:   2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []float64{6000, 9000, 12000}, []float64{
		results[0].ParamValue, results[1].ParamValue, results[2].ParamValue,
	})
	for i, res := range results {
		assert.Less(t, res.FinalState.Ttr, res.ParamValue, "point %d should cool", i)
		assert.Greater(t, res.FinalState.Tv, 2000.0, "point %d should heat Tv", i)
		assert.Less(t, res.Drift, 1e-12)
	}
}

func TestRunSweepBadParam(t *testing.T) {
	r := &Runner{}
	_, err := r.RunSweep(context.Background(), &ParameterSweep{
		Base: shortConfig(), ParamName: "pressure", NumSteps: 2,
	})
	assert.Error(t, err)

	_, err = r.RunSweep(context.Background(), &ParameterSweep{Base: shortConfig(), ParamName: "tv"})
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	r := &Runner{}
	mc := &MonteCarloConfig{
		Base:         shortConfig(),
		Perturbation: 0.1,
		NumTrials:    4,
		Workers:      2,
		Seed:         7,
	}

	results, err := r.RunMonteCarlo(context.Background(), mc)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, res := range results {
		assert.InDelta(t, 12000, res.Init.Ttr, 1200)
		assert.InDelta(t, 2000, res.Init.Tv, 200)
	}
	stable, unstable := MonteCarloStats(results)
	assert.Equal(t, 4, stable)
	assert.Zero(t, unstable)

	again, err := r.RunMonteCarlo(context.Background(), mc)
	require.NoError(t, err)
	assert.Equal(t, results[0].Init, again[0].Init)
}
