package thermo

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

// Bounds is a closed temperature interval in K.
type Bounds struct {
	Lo, Hi float64
}

// Clamp returns T limited to [Lo, Hi].
func (b Bounds) Clamp(T float64) float64 {
	if T < b.Lo {
		return b.Lo
	}
	if T > b.Hi {
		return b.Hi
	}
	return T
}

// Contains reports whether T lies in [Lo, Hi].
func (b Bounds) Contains(T float64) bool {
	return T >= b.Lo && T <= b.Hi
}

// Solution is the outcome of a temperature inversion. T is always usable;
// Converged reports whether the residual tolerance was met.
type Solution struct {
	T          float64
	Iterations int
	Residual   float64
	Converged  bool
	Bracketed  bool
}

// TvSolver inverts the vibrational energy model with a damped Newton
// iteration.
type TvSolver struct {
	Bounds      Bounds
	Fallback    float64 // returned for non-positive or non-finite targets
	Seed        float64 // replaces unusable initial guesses
	MaxIter     int
	RelTol      float64
	MaxStepFrac float64 // Newton steps are clipped to MaxStepFrac*T
}

// DefaultTvSolver returns the solver used by [InvertTv].
func DefaultTvSolver() TvSolver {
	return TvSolver{
		Bounds:      Bounds{Lo: 300, Hi: 25000},
		Fallback:    300,
		Seed:        3000,
		MaxIter:     30,
		RelTol:      1e-8,
		MaxStepFrac: 0.5,
	}
}

// InvertTv returns the vibrational temperature whose energy density matches
// evTarget. The result is best effort; see [TvSolver.Solve].
func InvertTv(records []VibRecord, evTarget, rho float64, Y []float64, tvInit float64) float64 {
	return DefaultTvSolver().Solve(records, evTarget, rho, Y, tvInit).T
}

// InvertTvResult is InvertTv reporting iterations, residual and convergence.
func InvertTvResult(records []VibRecord, evTarget, rho float64, Y []float64, tvInit float64) Solution {
	return DefaultTvSolver().Solve(records, evTarget, rho, Y, tvInit)
}

// Solve runs the damped Newton iteration on Ev(Tv) - evTarget.
func (s TvSolver) Solve(records []VibRecord, evTarget, rho float64, Y []float64, tvInit float64) Solution {
	if !isFinite(evTarget) || evTarget <= 0 {
		return Solution{T: s.Fallback, Residual: math.NaN()}
	}

	T := tvInit
	if !isFinite(T) || T <= 0 {
		T = s.Seed
	}
	T = s.Bounds.Clamp(T)

	tol := s.RelTol * math.Max(1, evTarget)
	sol := Solution{Residual: math.NaN()}

	for it := 0; it < s.MaxIter; it++ {
		ev, slope := VibEnergyAndSlope(records, T, rho, Y)
		if !isFinite(ev) || !isFinite(slope) || slope <= 0 {
			break
		}

		f := ev - evTarget
		sol.Residual = f
		if math.Abs(f) < tol {
			sol.Converged = true
			break
		}

		step := f / slope
		maxStep := s.MaxStepFrac * T
		if step > maxStep {
			step = maxStep
		}
		if step < -maxStep {
			step = -maxStep
		}

		T = s.Bounds.Clamp(T - step)
		sol.Iterations = it + 1
	}

	sol.T = T
	return sol
}

// EnergyFunc evaluates a reservoir energy density [J/m^3] at temperature T.
// It may be expensive and is not assumed smooth.
type EnergyFunc func(T float64) float64

// TtrSolver inverts an opaque energy function with a bracketed, safeguarded
// Newton/bisection hybrid.
type TtrSolver struct {
	Bounds         Bounds
	Fallback       float64
	Seed           float64
	MaxIter        int
	MaxBracketIter int
	RelTol         float64
	Shrink         float64 // bracket low end multiplier per expansion
	Grow           float64 // bracket high end multiplier per expansion
	Nudge          float64 // relative move when neither Newton nor bisection applies
	MinStep        float64 // absolute floor of the finite-difference step
	RelStep        float64 // finite-difference step relative to T
}

// DefaultTtrSolver returns the solver used by [InvertTtr].
func DefaultTtrSolver() TtrSolver {
	return TtrSolver{
		Bounds:         Bounds{Lo: 50, Hi: 25000},
		Fallback:       300,
		Seed:           3000,
		MaxIter:        30,
		MaxBracketIter: 20,
		RelTol:         1e-8,
		Shrink:         0.7,
		Grow:           1.3,
		Nudge:          0.1,
		MinStep:        1e-3,
		RelStep:        1e-4,
	}
}

// InvertTtr returns the temperature at which energy matches etTarget.
func InvertTtr(energy EnergyFunc, etTarget, ttrInit float64) float64 {
	return DefaultTtrSolver().Solve(energy, etTarget, ttrInit).T
}

// InvertTtrResult is InvertTtr reporting the full [Solution].
func InvertTtrResult(energy EnergyFunc, etTarget, ttrInit float64) Solution {
	return DefaultTtrSolver().Solve(energy, etTarget, ttrInit)
}

// Solve finds T with energy(T) = etTarget.
//
// A sign-changing bracket is searched for first by geometric expansion around
// the initial guess. The root iteration then takes Newton steps on a central
// finite-difference slope and falls back to bisection of the bracket (or a
// fixed relative nudge without one) whenever the Newton candidate is unusable.
// With a bracket, each candidate replaces the endpoint that preserves the sign
// change.
func (s TtrSolver) Solve(energy EnergyFunc, etTarget, ttrInit float64) Solution {
	if !isFinite(etTarget) || etTarget <= 0 {
		return Solution{T: s.Fallback, Residual: math.NaN()}
	}

	T := ttrInit
	if !isFinite(T) || T <= 0 {
		T = s.Seed
	}
	T = s.Bounds.Clamp(T)

	lo, hi := s.Bounds.Lo, s.Bounds.Hi
	residual := func(t float64) float64 {
		return energy(t) - etTarget
	}

	a := math.Max(lo, 0.5*T)
	b := math.Min(hi, 2.0*T)
	var fa, fb float64
	bracketed := false
	for k := 0; k < s.MaxBracketIter; k++ {
		fa, fb = residual(a), residual(b)
		if isFinite(fa) && isFinite(fb) && fa*fb <= 0 {
			bracketed = true
			break
		}
		a = math.Max(lo, a*s.Shrink)
		b = math.Min(hi, b*s.Grow)
		// Expansion stops once it reaches the domain; that widest interval
		// is never evaluated.
		if a <= lo && b >= hi {
			break
		}
	}

	tol := s.RelTol * math.Max(1, etTarget)
	sol := Solution{Bracketed: bracketed, Residual: math.NaN()}

	// Stencil points are clamped into the domain; the step is not.
	clamped := func(t float64) float64 {
		return residual(s.Bounds.Clamp(t))
	}

	x := T
	for it := 0; it < s.MaxIter; it++ {
		fx := residual(x)
		if !isFinite(fx) {
			break
		}
		sol.Residual = fx
		if math.Abs(fx) < tol {
			sol.T = x
			sol.Converged = true
			return sol
		}

		h := math.Max(s.MinStep, s.RelStep*x)
		fpx := fd.Derivative(clamped, x, &fd.Settings{Formula: fd.Central, Step: h})

		xNew := x
		newton := false
		if isFinite(fpx) && fpx != 0 {
			xNew = x - fx/fpx
			newton = true
		}

		if !newton || !isFinite(xNew) || !s.Bounds.Contains(xNew) {
			switch {
			case bracketed:
				xNew = 0.5 * (a + b)
			case fx > 0:
				xNew = s.Bounds.Clamp(x * (1 - s.Nudge))
			default:
				xNew = s.Bounds.Clamp(x * (1 + s.Nudge))
			}
		}

		if bracketed {
			fNew := residual(xNew)
			if isFinite(fNew) {
				if fa*fNew <= 0 {
					b, fb = xNew, fNew
				} else {
					a, fa = xNew, fNew
				}
			}
		}

		x = xNew
		sol.Iterations = it + 1
	}

	sol.T = x
	return sol
}
