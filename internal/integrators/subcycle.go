package integrators

import "github.com/san-kum/twotemp/internal/dynamo"

// Subcycle splits each flow step into N Euler substeps and resynchronizes
// the temperatures after every substep, so the exchange rate is re-evaluated
// at the updated operating point.
type Subcycle struct {
	N int
}

func NewSubcycle(n int) *Subcycle {
	if n < 1 {
		n = 1
	}
	return &Subcycle{N: n}
}

func (s *Subcycle) Name() string { return "subcycle" }

func (s *Subcycle) Advance(st dynamo.Stepper, c *dynamo.Case, x *dynamo.State, dt float64) error {
	n := s.N
	if n < 1 {
		n = 1
	}
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		if err := st.Step(h, c.Rho, c.Y, &x.Et, &x.Ev, &x.Ttr, &x.Tv); err != nil {
			return err
		}
		st.Resync(c.Rho, c.Y, x.Et, x.Ev, &x.Ttr, &x.Tv)
	}
	return nil
}
