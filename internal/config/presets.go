package config

import "sort"

var Presets = map[string]*Config{
	"heatbath": DefaultConfig(),
	"cold-start": {
		Name: "cold-start", Mechanism: "air2",
		Composition: map[string]float64{"N2": 0.767, "O2": 0.233},
		Ttr:         8000, Tv: 300, Pressure: 101325,
		Dt: 1e-8, Steps: 3000, Integrator: "euler", Substeps: 1, Resync: true, RecordEvery: 5,
	},
	"park": {
		Name: "park", Mechanism: "air5", Park: true,
		Composition: map[string]float64{"N2": 0.79, "O2": 0.21},
		Ttr:         15000, Tv: 1000, Pressure: 101325,
		Dt: 1e-8, Steps: 4000, Integrator: "euler", Substeps: 1, Resync: true, RecordEvery: 5,
	},
	"stiff": {
		Name: "stiff", Mechanism: "air5",
		Composition: map[string]float64{"N2": 0.79, "O2": 0.21},
		Ttr:         20000, Tv: 300, Pressure: 10 * 101325,
		Dt: 1e-8, Steps: 500, Integrator: "subcycle", Substeps: 20, Resync: true, RecordEvery: 1,
	},
	"nitrogen": {
		Name: "nitrogen", Mechanism: "n2",
		Composition: map[string]float64{"N2": 1},
		Ttr:         10000, Tv: 1000, Pressure: 101325,
		Dt: 1e-8, Steps: 4000, Integrator: "euler", Substeps: 1, Resync: true, RecordEvery: 10,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
