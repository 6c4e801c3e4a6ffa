package thermo

// PropertyLibrary is the mixture thermochemistry backend the core queries.
// Implementations hold a current state set by SetState; the getters refer to
// that state.
type PropertyLibrary interface {
	SpeciesLookup

	// NSpecies returns the number of species in the mixture.
	NSpecies() int

	// SpeciesName returns the name of species i.
	SpeciesName(i int) string

	// SpeciesMw returns the molar mass of species i in kg/mol.
	SpeciesMw(i int) float64

	// NEnergyEqns returns the number of internal energy equations, which is
	// the length of the source-rate array.
	NEnergyEqns() int

	// SetState sets the state from partial densities [kg/m^3] and the
	// temperature vector [Ttr, Tv].
	SetState(rhoI, T []float64) error

	// EnergyTransferSource writes one source rate [J/m^3/s] per internal
	// energy equation into dst. dst[0] is the translational-vibrational
	// exchange.
	EnergyTransferSource(dst []float64) error

	// MixtureEnergyMass returns the total mixture energy per unit mass [J/kg].
	MixtureEnergyMass() float64
}
