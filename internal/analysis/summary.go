package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/twotemp/internal/dynamo"
)

type Summary struct {
	Samples      int          `json:"samples"`
	Duration     float64      `json:"duration"`
	Initial      dynamo.State `json:"initial"`
	Final        dynamo.State `json:"final"`
	FinalGap     float64      `json:"final_gap"`
	EnergyChange float64      `json:"energy_change"` // relative change of Et+Ev
	PressureMin  float64      `json:"pressure_min"`
	PressureMax  float64      `json:"pressure_max"`
}

// Summarize condenses a sample series. An empty series gives a zero Summary.
func Summarize(samples []dynamo.Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	first, last := samples[0], samples[len(samples)-1]

	s := Summary{
		Samples:     len(samples),
		Duration:    last.Time - first.Time,
		Initial:     first.State,
		Final:       last.State,
		FinalGap:    last.State.Gap(),
		PressureMin: math.Inf(1),
		PressureMax: math.Inf(-1),
	}
	if e0 := first.State.Total(); e0 != 0 {
		s.EnergyChange = (last.State.Total() - e0) / e0
	}
	for _, smp := range samples {
		s.PressureMin = math.Min(s.PressureMin, smp.Pressure)
		s.PressureMax = math.Max(s.PressureMax, smp.Pressure)
	}
	return s
}

func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "samples:   %d over %.3e s\n", s.Samples, s.Duration)
	fmt.Fprintf(&sb, "Ttr:       %.2f -> %.2f K\n", s.Initial.Ttr, s.Final.Ttr)
	fmt.Fprintf(&sb, "Tv:        %.2f -> %.2f K\n", s.Initial.Tv, s.Final.Tv)
	fmt.Fprintf(&sb, "Et:        %.6e -> %.6e J/m3\n", s.Initial.Et, s.Final.Et)
	fmt.Fprintf(&sb, "Ev:        %.6e -> %.6e J/m3\n", s.Initial.Ev, s.Final.Ev)
	fmt.Fprintf(&sb, "final gap: %.4f K\n", s.FinalGap)
	fmt.Fprintf(&sb, "energy:    %.3e relative change\n", s.EnergyChange)
	fmt.Fprintf(&sb, "pressure:  %.1f .. %.1f Pa\n", s.PressureMin, s.PressureMax)
	return sb.String()
}
