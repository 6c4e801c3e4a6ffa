package metrics

import (
	"math"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// EnergyBalance tracks the largest relative departure of Et+Ev from its
// first observed value. Relaxation only moves energy between reservoirs, so
// anything above round-off points at a bad step.
type EnergyBalance struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyBalance() *EnergyBalance {
	return &EnergyBalance{name: "energy_balance"}
}

func (e *EnergyBalance) Name() string { return e.name }

func (e *EnergyBalance) Observe(s dynamo.Sample) {
	total := s.State.Total()
	if e.samples == 0 {
		e.initial = total
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(total-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyBalance) Value() float64 {
	return e.maxDrift
}

func (e *EnergyBalance) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
