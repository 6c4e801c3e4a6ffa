package metrics

import (
	"math"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// Equilibration reports the last observed |Ttr - Tv| / max(Ttr, Tv).
type Equilibration struct {
	name string
	last float64
	seen bool
}

func NewEquilibration() *Equilibration {
	return &Equilibration{name: "equilibration"}
}

func (e *Equilibration) Name() string { return e.name }

func (e *Equilibration) Observe(s dynamo.Sample) {
	hi := math.Max(s.State.Ttr, s.State.Tv)
	if hi <= 0 {
		return
	}
	e.last = s.State.Gap() / hi
	e.seen = true
}

func (e *Equilibration) Value() float64 {
	if !e.seen {
		return 1.0
	}
	return e.last
}

func (e *Equilibration) Reset() {
	e.last = 0
	e.seen = false
}
