// Package cosmology computes distance moduli against an empty-universe
// (Milne) reference, d = (c/H0)·z.
package cosmology

import (
	"fmt"
	"math"

	"skyaudit/domain/core"
)

// SpeedOfLight in km/s, matching H0 in km/s/Mpc.
const SpeedOfLight = 299792.458

// EmptyUniverse is the linear Hubble-law reference model.
type EmptyUniverse struct {
	H0 float64 // km/s/Mpc
	C  float64 // km/s
}

// NewEmptyUniverse validates h0 and uses the standard speed of light.
func NewEmptyUniverse(h0 float64) (EmptyUniverse, error) {
	if !(h0 > 0) || math.IsInf(h0, 0) {
		return EmptyUniverse{}, fmt.Errorf("hubble constant must be positive and finite, got %g", h0)
	}
	return EmptyUniverse{H0: h0, C: SpeedOfLight}, nil
}

// LuminosityDistance returns d in Mpc.
func (u EmptyUniverse) LuminosityDistance(z float64) float64 {
	return u.C / u.H0 * z
}

// DistanceModulus returns 5·log10(d_Mpc) + 25 for z > 0.
func (u EmptyUniverse) DistanceModulus(z float64) (float64, error) {
	if !(z > 0) || math.IsInf(z, 0) {
		return 0, core.NewInvalidRedshiftError(-1, z)
	}
	return 5*math.Log10(u.LuminosityDistance(z)) + 25, nil
}

// Residuals returns observed - reference modulus per row. Any z <= 0
// aborts the whole computation with the offending row index.
func (u EmptyUniverse) Residuals(z, observed []float64) ([]float64, error) {
	if len(z) != len(observed) {
		return nil, fmt.Errorf("redshift/modulus length mismatch: %d vs %d", len(z), len(observed))
	}
	out := make([]float64, len(z))
	for i := range z {
		if !(z[i] > 0) || math.IsInf(z[i], 0) {
			return nil, core.NewInvalidRedshiftError(i, z[i])
		}
		out[i] = observed[i] - (5*math.Log10(u.LuminosityDistance(z[i])) + 25)
	}
	return out, nil
}
