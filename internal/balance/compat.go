package balance

// maxPlausibleAmount is the threshold above which an amount is assumed to
// have been recorded in cents instead of euros. Household expenses above
// this are rare; cent-scaled values (30.00 stored as 3000) are not.
const maxPlausibleAmount = 1000

// NormalizeAmount is a compatibility shim for an upstream unit-scaling
// inconsistency: some legacy rows carry amounts in minor units (cents)
// instead of major units (euros). Implausibly large magnitudes are scaled
// back down. Remove once every writer agrees on major units.
func NormalizeAmount(x float64) float64 {
	if x > maxPlausibleAmount || x < -maxPlausibleAmount {
		return Round(x / 100)
	}
	return x
}
