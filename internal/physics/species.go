package physics

import (
	"fmt"
	"sort"
)

// Species holds the per-species data the library needs.
type Species struct {
	Name      string
	MolarMass float64 // kg/mol
	ThetaV    float64 // K, zero for atoms
	TransRot  float64 // translational+rotational energy in units of R_s T
}

// Diatomic reports whether the species has a vibrational mode.
func (s Species) Diatomic() bool { return s.ThetaV > 0 }

var speciesData = map[string]Species{
	"N2": {Name: "N2", MolarMass: 28.0134e-3, ThetaV: 3371.0, TransRot: 2.5},
	"O2": {Name: "O2", MolarMass: 31.9988e-3, ThetaV: 2256.0, TransRot: 2.5},
	"NO": {Name: "NO", MolarMass: 30.0061e-3, ThetaV: 2719.0, TransRot: 2.5},
	"N":  {Name: "N", MolarMass: 14.0067e-3, TransRot: 1.5},
	"O":  {Name: "O", MolarMass: 15.9994e-3, TransRot: 1.5},
}

// Mechanisms lists the species of each named mixture in library order.
var Mechanisms = map[string][]string{
	"air5": {"N2", "O2", "NO", "N", "O"},
	"air2": {"N2", "O2"},
	"n2":   {"N2"},
}

// ListMechanisms returns the known mechanism names, sorted.
func ListMechanisms() []string {
	names := make([]string, 0, len(Mechanisms))
	for name := range Mechanisms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupMechanism(name string) ([]Species, error) {
	names, ok := Mechanisms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMechanism, name)
	}
	out := make([]Species, len(names))
	for i, n := range names {
		out[i] = speciesData[n]
	}
	return out, nil
}
