package fit

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"skyaudit/domain/core"
	"skyaudit/domain/sky"
)

// Parameter names shared by the report and the verdicts.
const (
	ParamQuadrupole = "A"
	ParamDipole     = "B"
	ParamPhase      = "phi0"
	ParamGamma      = "gamma"
	ParamExponent   = "n"
)

const deg = math.Pi / 180

// LegendreP2 is the degree-2 Legendre polynomial.
func LegendreP2(x float64) float64 {
	return 0.5 * (3*x*x - 1)
}

// AnisotropyModel is 1 + A·P2(cos θ) + B·sin(l − φ0) with θ = 90° − b.
// Observations are x = (l, b) in degrees; φ0 is in degrees.
func AnisotropyModel() Model {
	return Model{
		Name:    "anisotropy",
		Params:  []string{ParamQuadrupole, ParamDipole, ParamPhase},
		Initial: []float64{0, 0, 120},
		Eval: func(x, p []float64) float64 {
			cosTheta := math.Cos((90 - x[1]) * deg)
			return 1 + p[0]*LegendreP2(cosTheta) + p[1]*math.Sin((x[0]-p[2])*deg)
		},
	}
}

// RadialExcessModel is γ·z^n over x = (z).
func RadialExcessModel() Model {
	return Model{
		Name:    "radial_excess",
		Params:  []string{ParamGamma, ParamExponent},
		Initial: []float64{0.1, 2.0},
		Eval: func(x, p []float64) float64 {
			return p[0] * math.Pow(x[0], p[1])
		},
	}
}

// AnisotropyData normalises redshift by its mean and pairs it with (l, b).
func AnisotropyData(l, b, z []float64) (Data, error) {
	if len(l) != len(z) || len(b) != len(z) {
		return Data{}, fmt.Errorf("anisotropy columns differ in length: l=%d b=%d z=%d", len(l), len(b), len(z))
	}
	mean, err := stats.Mean(z)
	if err != nil {
		return Data{}, fmt.Errorf("%w: %v", core.ErrInsufficientData, err)
	}
	if mean == 0 {
		return Data{}, fmt.Errorf("%w: mean redshift is zero", core.ErrInvalidRedshift)
	}

	d := Data{X: make([][]float64, len(z)), Y: make([]float64, len(z))}
	for i := range z {
		d.X[i] = []float64{l[i], b[i]}
		d.Y[i] = z[i] / mean
	}
	return d, nil
}

// RadialData pairs the modulus residual with redshift, weighted by sigma.
func RadialData(z, residual, sigma []float64) (Data, error) {
	if len(residual) != len(z) || len(sigma) != len(z) {
		return Data{}, fmt.Errorf("radial columns differ in length: z=%d residual=%d sigma=%d", len(z), len(residual), len(sigma))
	}
	d := Data{X: make([][]float64, len(z)), Y: append([]float64(nil), residual...), Sigma: append([]float64(nil), sigma...)}
	for i := range z {
		d.X[i] = []float64{z[i]}
	}
	return d, nil
}

// DipoleApex is the direction where B·sin(l − φ0) peaks. The model's dipole
// term has no latitude dependence, so the apex lies in the galactic plane.
func DipoleApex(amplitude, phase float64) sky.Galactic {
	l := phase + 90
	if amplitude < 0 {
		l = phase - 90
	}
	return sky.Galactic{L: sky.NormalizeLongitude(l), B: 0}
}
