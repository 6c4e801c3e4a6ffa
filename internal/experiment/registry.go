package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/integrators"
	"github.com/san-kum/twotemp/internal/physics"
	"github.com/san-kum/twotemp/internal/thermo"
)

type Registry struct {
	mechanisms  map[string]func(park bool) (thermo.PropertyLibrary, error)
	integrators map[string]func(cfg *config.Config) dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		mechanisms:  make(map[string]func(bool) (thermo.PropertyLibrary, error)),
		integrators: make(map[string]func(*config.Config) dynamo.Integrator),
	}

	for _, name := range physics.ListMechanisms() {
		mech := name
		r.mechanisms[mech] = func(park bool) (thermo.PropertyLibrary, error) {
			return physics.NewAirRRHO(mech, physics.WithParkCorrection(park))
		}
	}

	r.integrators["euler"] = func(cfg *config.Config) dynamo.Integrator {
		return integrators.NewEuler(cfg.Resync)
	}
	r.integrators["subcycle"] = func(cfg *config.Config) dynamo.Integrator {
		return integrators.NewSubcycle(cfg.Substeps)
	}

	return r
}

// RegisterMechanism adds or replaces a property library constructor.
func (r *Registry) RegisterMechanism(name string, fn func(park bool) (thermo.PropertyLibrary, error)) {
	r.mechanisms[name] = fn
}

func (r *Registry) GetLibrary(name string, park bool) (thermo.PropertyLibrary, error) {
	fn, ok := r.mechanisms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMechanism, name)
	}
	return fn(park)
}

func (r *Registry) GetIntegrator(cfg *config.Config) (dynamo.Integrator, error) {
	fn, ok := r.integrators[cfg.Integrator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, cfg.Integrator)
	}
	return fn(cfg), nil
}

func (r *Registry) ListMechanisms() []string {
	return sortedKeys(r.mechanisms)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
