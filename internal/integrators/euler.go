package integrators

import "github.com/san-kum/twotemp/internal/dynamo"

// Euler takes one explicit relaxation step per flow step. With Resync the
// temperatures are recomputed from the new energies afterwards.
type Euler struct {
	Resync bool
}

func NewEuler(resync bool) *Euler {
	return &Euler{Resync: resync}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(s dynamo.Stepper, c *dynamo.Case, x *dynamo.State, dt float64) error {
	if err := s.Step(dt, c.Rho, c.Y, &x.Et, &x.Ev, &x.Ttr, &x.Tv); err != nil {
		return err
	}
	if e.Resync {
		s.Resync(c.Rho, c.Y, x.Et, x.Ev, &x.Ttr, &x.Tv)
	}
	return nil
}
