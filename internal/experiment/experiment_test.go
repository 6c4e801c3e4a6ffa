package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/physics"
	"github.com/san-kum/twotemp/internal/thermo"
)

func TestBuildDefault(t *testing.T) {
	setup, err := Build(config.DefaultConfig())
	require.NoError(t, err)

	c := setup.Case
	assert.Equal(t, "heatbath", c.Name)
	assert.InDelta(t, 0.029213072741594355, c.Rho, 1e-12)
	assert.Equal(t, []float64{0.79, 0.21, 0, 0, 0}, c.Y)
	assert.Equal(t, 12000.0, c.Init.Ttr)
	assert.Equal(t, 2000.0, c.Init.Tv)
	assert.InDelta(t, 238752.22692616333*c.Rho, c.Init.Ev, 1e-6)
	assert.Greater(t, c.Init.Et, c.Init.Ev)

	assert.Equal(t, "euler", setup.Integrator.Name())
	assert.Equal(t, 4000, setup.Run.Steps)
	assert.True(t, setup.Run.ValidateState)
}

func TestBuildSolverOverrides(t *testing.T) {
	base, err := Build(config.DefaultConfig())
	require.NoError(t, err)
	c := base.Case
	assert.InDelta(t, 2000, base.Mixture.InvertTv(c.Init.Ev, c.Rho, c.Y, 1000), 1e-3)
	assert.InDelta(t, 12000, base.Mixture.InvertTtr(c.Init.Et, c.Rho, c.Y, 2000, 9000), 1e-3)

	cfg := config.DefaultConfig()
	cfg.TvSolver = &config.Solver{Hi: 1500}
	cfg.TtrSolver = &config.Solver{Hi: 10000}
	capped, err := Build(cfg)
	require.NoError(t, err)

	tv := capped.Mixture.InvertTvResult(c.Init.Ev, c.Rho, c.Y, 1000)
	assert.Equal(t, 1500.0, tv.T)
	assert.False(t, tv.Converged)

	ttr := capped.Mixture.InvertTtrResult(c.Init.Et, c.Rho, c.Y, 2000, 9000)
	assert.Equal(t, 10000.0, ttr.T)
	assert.False(t, ttr.Converged)

	diag := capped.Mixture.Diagnostics()
	assert.Equal(t, 1, diag.TvUnconverged)
	assert.Equal(t, 1, diag.TtrUnconverged)
}

func TestBuildNormalisesComposition(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Composition = map[string]float64{"N2": 79, "O2": 21}

	setup, err := Build(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.79, setup.Case.Y[0], 1e-15)
	assert.InDelta(t, 0.21, setup.Case.Y[1], 1e-15)
}

func TestBuildRhoOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rho = 0.1

	setup, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.1, setup.Case.Rho)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unknown mechanism", func(c *config.Config) { c.Mechanism = "argon" }, ErrUnknownMechanism},
		{"unknown species", func(c *config.Config) { c.Composition["Ar"] = 0.01 }, ErrUnknownSpecies},
		{"species missing from mechanism", func(c *config.Config) { c.Mechanism = "n2" }, ErrUnknownSpecies},
		{"invalid config", func(c *config.Config) { c.Steps = 0 }, config.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			_, err := Build(cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildCustomRegistry(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.RegisterMechanism("air5", func(park bool) (thermo.PropertyLibrary, error) {
		calls++
		return physics.NewAirRRHO("air5", physics.WithParkCorrection(park))
	})

	_, err := Build(config.DefaultConfig(), WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistryLists(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"air2", "air5", "n2"}, reg.ListMechanisms())
	assert.Equal(t, []string{"euler", "subcycle"}, reg.ListIntegrators())
}

func TestRunHeatBath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Steps = 500
	cfg.RecordEvery = 10

	exp, err := New(cfg)
	require.NoError(t, err)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500, res.StepsTaken)
	assert.Len(t, res.Samples, 51)
	assert.InDelta(t, 9232.7, res.Final.Ttr, 1)
	assert.InDelta(t, res.Final.Ttr, res.Final.Tv, 1)

	assert.Less(t, res.Metrics["energy_balance"], 1e-12)
	assert.Less(t, res.Metrics["equilibration"], 1e-3)
	assert.Equal(t, 1.0, res.Metrics["stability"])
	tau, ok := res.Metrics["relaxation_tau"]
	require.True(t, ok)
	assert.Greater(t, tau, 0.0)
	assert.Less(t, tau, 1e-5)

	rec := exp.Record(res)
	assert.Equal(t, "euler", rec.Integrator)
	assert.Equal(t, []string{"N2", "O2", "NO", "N", "O"}, rec.Table.Species)
	assert.Equal(t, 500, rec.Diagnostics.Steps)
}

func TestRunColdStart(t *testing.T) {
	exp, err := New(config.GetPreset("cold-start"))
	require.NoError(t, err)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6123.6, res.Final.Ttr, 1)
	assert.InDelta(t, 6123.6, res.Final.Tv, 1)
}

func TestStiffEulerVersusSubcycle(t *testing.T) {
	maxTv := func(integrator string) (float64, float64) {
		cfg := config.GetPreset("stiff")
		cfg.Integrator = integrator
		exp, err := New(cfg)
		require.NoError(t, err)
		res, err := exp.Run(context.Background())
		require.NoError(t, err)

		peak := 0.0
		for _, s := range res.Samples {
			peak = math.Max(peak, s.State.Tv)
		}
		return peak, res.Final.Ttr
	}

	eulerPeak, eulerFinal := maxTv("euler")
	subPeak, subFinal := maxTv("subcycle")

	assert.Equal(t, 25000.0, eulerPeak)
	assert.Less(t, subPeak, 14800.0)
	assert.InDelta(t, 14720.8, eulerFinal, 1)
	assert.InDelta(t, 14720.8, subFinal, 1)
}

func TestRunCanceled(t *testing.T) {
	exp, err := New(config.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := exp.Run(ctx)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Zero(t, res.StepsTaken)
}

func TestSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 400
	base.RecordEvery = 0

	points := []Point{{Ttr: 12000, Tv: 2000}, {Ttr: 8000, Tv: 300}}
	results, err := Sweep(context.Background(), base, points, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "heatbath_12000_2000", results[0].Case)
	assert.Equal(t, "heatbath_8000_300", results[1].Case)
	assert.InDelta(t, 9232.7, results[0].Final.Ttr, 1)
	assert.Less(t, results[1].Final.Ttr, results[0].Final.Ttr)
	for _, r := range results {
		assert.Len(t, r.Samples, 2)
		assert.Less(t, r.Metrics["energy_balance"], 1e-12)
	}
}

func TestSweepEmpty(t *testing.T) {
	results, err := Sweep(context.Background(), config.DefaultConfig(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
