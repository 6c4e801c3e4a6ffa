// Package optim searches case parameters for the best value of a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/experiment"
)

// ErrNoCandidate indicates that no grid point produced the metric.
var ErrNoCandidate = errors.New("optim: no grid point produced the metric")

// Params lists the case fields a grid can vary.
var Params = []string{"dt", "substeps", "ttr", "tv", "pressure", "steps"}

// Apply sets one named case field.
func Apply(cfg *config.Config, name string, value float64) error {
	switch name {
	case "dt":
		cfg.Dt = value
	case "substeps":
		cfg.Substeps = int(value)
	case "steps":
		cfg.Steps = int(value)
	case "ttr":
		cfg.Ttr = value
	case "tv":
		cfg.Tv = value
	case "pressure":
		cfg.Pressure = value
	default:
		return fmt.Errorf("optim: cannot vary %q (known: %s)", name, strings.Join(Params, ", "))
	}
	return nil
}

// ParseGrid parses "name=v1,v2,..." into a parameter name and its values.
func ParseGrid(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("optim: grid %q is not name=v1,v2,...", spec)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: grid %q: %w", spec, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs base once per grid point and returns the point with the
// smallest metric value. Every evaluated point is returned, failed ones
// with Err set, in grid order.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	metricName string,
	opts ...experiment.Option,
) (Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, nil, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if err := Apply(base.Clone(), name, 0); err != nil {
			return Candidate{}, nil, err
		}
	}

	var all []Candidate
	g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		c := Candidate{Params: params}
		c.Value, c.Err = evaluate(ctx, base, params, metricName, opts)
		all = append(all, c)
	})

	best := Candidate{Value: math.Inf(1)}
	found := false
	for _, c := range all {
		if c.Err == nil && c.Value < best.Value {
			best, found = c, true
		}
	}
	if ctx.Err() != nil {
		return best, all, ctx.Err()
	}
	if !found {
		return best, all, ErrNoCandidate
	}
	return best, all, nil
}

func evaluate(ctx context.Context, base *config.Config, params map[string]float64, metricName string, opts []experiment.Option) (float64, error) {
	cfg := base.Clone()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := Apply(cfg, name, params[name]); err != nil {
			return 0, err
		}
	}

	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	return metricValue(result, metricName)
}

func metricValue(result *dynamo.Result, name string) (float64, error) {
	v, ok := result.Metrics[name]
	if !ok || math.IsNaN(v) {
		return 0, fmt.Errorf("optim: metric %q not available", name)
	}
	return v, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		visit(current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, visit)
	}
}
