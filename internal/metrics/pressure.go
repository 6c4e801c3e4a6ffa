package metrics

import (
	"math"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// PressureDrift is the largest relative change of the translational
// pressure against the first sample.
type PressureDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewPressureDrift() *PressureDrift {
	return &PressureDrift{name: "pressure_drift"}
}

func (p *PressureDrift) Name() string { return p.name }

func (p *PressureDrift) Observe(s dynamo.Sample) {
	if p.samples == 0 {
		p.initial = s.Pressure
	}
	p.samples++
	if p.initial != 0 {
		p.maxDrift = math.Max(p.maxDrift, math.Abs(s.Pressure-p.initial)/math.Abs(p.initial))
	}
}

func (p *PressureDrift) Value() float64 {
	return p.maxDrift
}

func (p *PressureDrift) Reset() {
	p.initial = 0
	p.maxDrift = 0
	p.samples = 0
}
