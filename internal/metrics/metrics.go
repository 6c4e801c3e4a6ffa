package metrics

import "github.com/san-kum/twotemp/internal/dynamo"

// Standard returns fresh instances of the metrics every run records.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyBalance(),
		NewEquilibration(),
		NewPressureDrift(),
		NewStability(50, 25000),
	}
}
