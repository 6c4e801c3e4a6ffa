package dynamo

import (
	"fmt"
	"math"
)

// State is the thermal state of a constant-volume heat bath. Energies are
// densities in J/m^3, temperatures in K.
type State struct {
	Et  float64 `json:"et"`
	Ev  float64 `json:"ev"`
	Ttr float64 `json:"ttr"`
	Tv  float64 `json:"tv"`
}

func (s State) IsValid() bool {
	for _, v := range [...]float64{s.Et, s.Ev, s.Ttr, s.Tv} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Total returns Et + Ev, the quantity relaxation conserves.
func (s State) Total() float64 { return s.Et + s.Ev }

// Gap returns |Ttr - Tv|.
func (s State) Gap() float64 { return math.Abs(s.Ttr - s.Tv) }

// Case is one heat-bath problem: fixed density and composition plus the
// initial state.
type Case struct {
	Name string
	Rho  float64
	Y    []float64
	Init State
}

func (c Case) Validate() error {
	if !(c.Rho > 0) || math.IsInf(c.Rho, 0) {
		return fmt.Errorf("%w: density %g", ErrBadCase, c.Rho)
	}
	if len(c.Y) == 0 {
		return fmt.Errorf("%w: empty composition", ErrBadCase)
	}
	if !c.Init.IsValid() {
		return fmt.Errorf("%w: initial state", ErrInvalidState)
	}
	return nil
}

// Stepper advances the two reservoirs. *thermo.Mixture satisfies it.
type Stepper interface {
	Step(dt, rho float64, Y []float64, et, ev, ttr, tv *float64) error
	Resync(rho float64, Y []float64, et, ev float64, ttr, tv *float64)
	Pressure(rho float64, Y []float64, ttr float64) float64
}

// Integrator advances x by one flow step of length dt.
type Integrator interface {
	Name() string
	Advance(s Stepper, c *Case, x *State, dt float64) error
}

// Sample is a recorded point of a run.
type Sample struct {
	Time     float64 `json:"t"`
	State    State   `json:"state"`
	Pressure float64 `json:"p"`
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Dt            float64 `json:"dt"`
	Steps         int     `json:"steps"`
	RecordEvery   int     `json:"record_every"`
	ValidateState bool    `json:"validate_state"`
}

// DefaultConfig matches the reference heat bath: 4000 steps of 10 ns.
func DefaultConfig() Config {
	return Config{
		Dt:            1e-8,
		Steps:         4000,
		RecordEvery:   1,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrBadConfig, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrBadConfig, c.Steps)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative, got %d", ErrBadConfig, c.RecordEvery)
	}
	return nil
}

type Result struct {
	Case       string             `json:"case"`
	Samples    []Sample           `json:"samples"`
	Final      State              `json:"final"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
}
