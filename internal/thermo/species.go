package thermo

import (
	"gonum.org/v1/gonum/unit/constant"
)

// Ru is the universal gas constant in J/(mol K).
const Ru = float64(constant.Boltzmann) * float64(constant.Avogadro)

// VibSpecies describes one vibrating species in a vibrational table.
type VibSpecies struct {
	Name      string  `yaml:"name" json:"name"`
	MolarMass float64 `yaml:"molar_mass" json:"molar_mass"` // kg/mol
	ThetaV    float64 `yaml:"theta_v" json:"theta_v"`       // K
}

// VibTable is the set of species whose vibrational mode is modelled.
type VibTable []VibSpecies

// DefaultVibTable returns the harmonic-oscillator data for the diatomic air
// species.
func DefaultVibTable() VibTable {
	return VibTable{
		{Name: "N2", MolarMass: 28.0134e-3, ThetaV: 3371.0},
		{Name: "O2", MolarMass: 31.9988e-3, ThetaV: 2256.0},
		{Name: "NO", MolarMass: 30.0061e-3, ThetaV: 2719.0},
	}
}

// VibRecord is a vibrational table entry resolved against a mixture's
// species indexing.
type VibRecord struct {
	Index     int
	MolarMass float64
	ThetaV    float64
}

// SpeciesLookup resolves species names to indices. Negative means absent.
type SpeciesLookup interface {
	SpeciesIndex(name string) int
}

// MatchVibTable keeps the table entries present in lib, in table order.
// Entries the library does not know are returned in skipped.
func MatchVibTable(lib SpeciesLookup, table VibTable) (records []VibRecord, skipped []string) {
	records = make([]VibRecord, 0, len(table))
	for _, v := range table {
		idx := lib.SpeciesIndex(v.Name)
		if idx < 0 {
			skipped = append(skipped, v.Name)
			continue
		}
		records = append(records, VibRecord{Index: idx, MolarMass: v.MolarMass, ThetaV: v.ThetaV})
	}
	return records, skipped
}
