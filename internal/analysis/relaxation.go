package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// MinFitPoints is the number of samples above the gap threshold a fit needs.
const MinFitPoints = 3

var (
	// ErrTooFewPoints indicates that fewer than MinFitPoints samples carry a
	// usable gap.
	ErrTooFewPoints = errors.New("analysis: not enough samples above the gap threshold")
	// ErrNoDecay indicates a fitted gap that stays flat or grows.
	ErrNoDecay = errors.New("analysis: temperature gap does not decay")
)

// RelaxationFit is the result of fitting ln|Ttr - Tv| = a + b t.
type RelaxationFit struct {
	Tau       float64 `json:"tau"`
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// FitRelaxation fits the samples whose gap exceeds minGap [K]. When the gap
// does not shrink the fit is still returned, with Tau = +Inf and ErrNoDecay.
func FitRelaxation(samples []dynamo.Sample, minGap float64) (RelaxationFit, error) {
	xs := make([]float64, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	for _, s := range samples {
		gap := s.State.Gap()
		if !(gap > minGap) || math.IsInf(gap, 0) {
			continue
		}
		xs = append(xs, s.Time)
		ys = append(ys, math.Log(gap))
	}
	if len(xs) < MinFitPoints {
		return RelaxationFit{}, fmt.Errorf("%w: %d usable", ErrTooFewPoints, len(xs))
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	fit := RelaxationFit{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Points:    len(xs),
		Tau:       math.Inf(1),
	}
	if !(beta < 0) {
		return fit, fmt.Errorf("%w: slope %g 1/s", ErrNoDecay, beta)
	}
	fit.Tau = -1 / beta
	return fit, nil
}

// RelaxationTime is FitRelaxation returning only tau.
func RelaxationTime(samples []dynamo.Sample, minGap float64) (float64, error) {
	fit, err := FitRelaxation(samples, minGap)
	if err != nil {
		return 0, err
	}
	return fit.Tau, nil
}
