package sky

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"skyaudit/domain/core"
)

// Validate rejects non-finite angles and latitudes outside [-90, 90].
func (g Galactic) Validate() error {
	if math.IsNaN(g.L) || math.IsInf(g.L, 0) {
		return core.NewInvalidCoordinateError("longitude", g.L)
	}
	if math.IsNaN(g.B) || math.IsInf(g.B, 0) || g.B < -90 || g.B > 90 {
		return core.NewInvalidCoordinateError("latitude", g.B)
	}
	return nil
}

func (g Galactic) unit() r3.Vec {
	sl, cl := math.Sincos(g.L * deg)
	sb, cb := math.Sincos(g.B * deg)
	return r3.Vec{X: cb * cl, Y: cb * sl, Z: sb}
}

// Separation returns the great-circle angle between a and b in degrees.
// The atan2 form of the spherical law of cosines stays accurate near 0
// and 180 degrees.
func Separation(a, b Galactic) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	u, v := a.unit(), b.unit()
	return math.Atan2(r3.Norm(r3.Cross(u, v)), r3.Dot(u, v)) / deg, nil
}

// Alignment is the outcome of an anti-alignment test between a fitted
// direction and a reference direction.
type Alignment struct {
	Fit         Galactic `json:"fit"`
	Reference   Galactic `json:"reference"`
	Separation  float64  `json:"separation_deg"`
	Deviation   float64  `json:"deviation_from_180_deg"`
	Tolerance   float64  `json:"tolerance_deg"`
	AntiAligned bool     `json:"anti_aligned"`
}

// CheckAntiAlignment measures how far fit is from pointing exactly away
// from ref. AntiAligned is set when the deviation from 180 degrees is below
// tolerance.
func CheckAntiAlignment(fit, ref Galactic, tolerance float64) (Alignment, error) {
	sep, err := Separation(fit, ref)
	if err != nil {
		return Alignment{}, err
	}
	dev := math.Abs(180 - sep)
	return Alignment{
		Fit:         fit,
		Reference:   ref,
		Separation:  sep,
		Deviation:   dev,
		Tolerance:   tolerance,
		AntiAligned: dev < tolerance,
	}, nil
}
