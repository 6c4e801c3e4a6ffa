package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/physics"
	"github.com/san-kum/twotemp/internal/thermo"
)

// recordingStepper exchanges k*(Ttr-Tv) with unit heat capacities.
type recordingStepper struct {
	k       float64
	steps   []float64
	resyncs int
	err     error
}

func (r *recordingStepper) Step(dt, rho float64, Y []float64, et, ev, ttr, tv *float64) error {
	if r.err != nil {
		return r.err
	}
	r.steps = append(r.steps, dt)
	q := r.k * (*ttr - *tv) * dt
	*ev += q
	*et -= q
	return nil
}

func (r *recordingStepper) Resync(rho float64, Y []float64, et, ev float64, ttr, tv *float64) {
	r.resyncs++
	*ttr, *tv = et, ev
}

func (r *recordingStepper) Pressure(rho float64, Y []float64, ttr float64) float64 { return rho * ttr }

func unitCase() *dynamo.Case {
	return &dynamo.Case{Rho: 1, Y: []float64{1}}
}

func TestEulerWithoutResync(t *testing.T) {
	st := &recordingStepper{k: 1}
	x := dynamo.State{Et: 100, Ev: 0, Ttr: 100, Tv: 0}

	e := NewEuler(false)
	for i := 0; i < 3; i++ {
		if err := e.Advance(st, unitCase(), &x, 0.25); err != nil {
			t.Fatal(err)
		}
	}

	if st.resyncs != 0 {
		t.Errorf("expected no resync, got %d", st.resyncs)
	}
	// Frozen temperatures: constant rate.
	if x.Ev != 75 || x.Et != 25 {
		t.Errorf("expected Et=25 Ev=75, got Et=%g Ev=%g", x.Et, x.Ev)
	}
	if x.Ttr != 100 || x.Tv != 0 {
		t.Error("temperatures should be untouched")
	}
}

func TestEulerWithResync(t *testing.T) {
	st := &recordingStepper{k: 1}
	x := dynamo.State{Et: 100, Ev: 0, Ttr: 100, Tv: 0}

	e := NewEuler(true)
	if err := e.Advance(st, unitCase(), &x, 0.25); err != nil {
		t.Fatal(err)
	}
	if err := e.Advance(st, unitCase(), &x, 0.25); err != nil {
		t.Fatal(err)
	}

	if st.resyncs != 2 {
		t.Errorf("expected 2 resyncs, got %d", st.resyncs)
	}
	// 100/0 -> 75/25 -> 62.5/37.5
	if x.Ttr != 62.5 || x.Tv != 37.5 {
		t.Errorf("expected 62.5/37.5, got %g/%g", x.Ttr, x.Tv)
	}
}

func TestSubcycle(t *testing.T) {
	st := &recordingStepper{k: 1}
	x := dynamo.State{Et: 100, Ev: 0, Ttr: 100, Tv: 0}

	if err := NewSubcycle(4).Advance(st, unitCase(), &x, 1); err != nil {
		t.Fatal(err)
	}

	if len(st.steps) != 4 || st.resyncs != 4 {
		t.Fatalf("expected 4 substeps and resyncs, got %d and %d", len(st.steps), st.resyncs)
	}
	for _, h := range st.steps {
		if h != 0.25 {
			t.Errorf("expected substep 0.25, got %g", h)
		}
	}
	// Gap halves every substep.
	if x.Ttr-x.Tv != 100.0/16 {
		t.Errorf("expected gap %g, got %g", 100.0/16, x.Ttr-x.Tv)
	}
	if x.Total() != 100 {
		t.Errorf("expected total 100, got %g", x.Total())
	}
}

func TestSubcycleGuardsCount(t *testing.T) {
	st := &recordingStepper{k: 1}
	x := dynamo.State{Et: 1, Ttr: 1}

	if err := (&Subcycle{N: 0}).Advance(st, unitCase(), &x, 1); err != nil {
		t.Fatal(err)
	}
	if len(st.steps) != 1 {
		t.Errorf("expected a single step, got %d", len(st.steps))
	}
	if NewSubcycle(-3).N != 1 {
		t.Error("expected N clamped to 1")
	}
}

func TestAdvancePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	st := &recordingStepper{err: boom}
	x := dynamo.State{}

	for _, integ := range []dynamo.Integrator{NewEuler(true), NewSubcycle(3)} {
		if err := integ.Advance(st, unitCase(), &x, 1); !errors.Is(err, boom) {
			t.Errorf("%s: expected boom, got %v", integ.Name(), err)
		}
	}
	if st.resyncs != 0 {
		t.Error("resync should not run after a failed step")
	}
}

func airCase(t testing.TB) (*thermo.Mixture, *dynamo.Case, dynamo.State) {
	t.Helper()
	lib, err := physics.NewAirRRHO("air5")
	if err != nil {
		t.Fatal(err)
	}
	mix, err := thermo.NewMixture(lib)
	if err != nil {
		t.Fatal(err)
	}
	Y := []float64{0.79, 0.21, 0, 0, 0}
	rho := 101325 / (mix.Rmix(Y) * 12000)
	x := dynamo.State{Ttr: 12000, Tv: 2000}
	x.Ev = mix.EvFromTv(x.Tv, rho, Y)
	x.Et = mix.EtFromState(x.Ttr, x.Tv, rho, Y)
	return mix, &dynamo.Case{Rho: rho, Y: Y}, x
}

func TestSubcycleMatchesFineEuler(t *testing.T) {
	mix, c, x0 := airCase(t)

	coarse := x0
	if err := NewSubcycle(10).Advance(mix, c, &coarse, 1e-7); err != nil {
		t.Fatal(err)
	}

	fine := x0
	e := NewEuler(true)
	for i := 0; i < 10; i++ {
		if err := e.Advance(mix, c, &fine, 1e-8); err != nil {
			t.Fatal(err)
		}
	}

	if math.Abs(coarse.Tv-fine.Tv) > 1e-6*fine.Tv {
		t.Errorf("expected identical trajectories, Tv %g vs %g", coarse.Tv, fine.Tv)
	}
	if fine.Tv <= x0.Tv || fine.Ttr >= x0.Ttr {
		t.Errorf("expected relaxation towards equilibrium, got Ttr=%g Tv=%g", fine.Ttr, fine.Tv)
	}
}

func BenchmarkEulerAir5(b *testing.B) {
	mix, c, x0 := airCase(b)
	integ := NewEuler(true)
	x := x0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%1000 == 0 {
			x = x0
		}
		_ = integ.Advance(mix, c, &x, 1e-8)
	}
}
