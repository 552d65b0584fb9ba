// Package sky holds the celestial frame conversions and great-circle
// geometry used by the audit.
package sky

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const deg = math.Pi / 180

// icrsToGalactic is the Hipparcos ICRS -> galactic rotation (ESA 1997,
// vol. 1, sect. 1.5.3). Rows are the galactic axes expressed in ICRS.
var icrsToGalactic = mat.NewDense(3, 3, []float64{
	-0.0548755604162154, -0.8734370902348850, -0.4838350155487132,
	+0.4941094278755837, -0.4448296299600112, +0.7469822444972189,
	-0.8676661490190047, -0.1980763734312015, +0.4559837761750669,
})

// Equatorial is an ICRS position in degrees.
type Equatorial struct {
	RA  float64
	Dec float64
}

// Galactic is a galactic position in degrees.
type Galactic struct {
	L float64
	B float64
}

// Galactic converts a single equatorial position.
func (e Equatorial) Galactic() Galactic {
	l, b := ToGalactic([]float64{e.RA}, []float64{e.Dec})
	return Galactic{L: l[0], B: b[0]}
}

// Equatorial converts a single galactic position back to ICRS.
func (g Galactic) Equatorial() Equatorial {
	ra, dec := ToEquatorial([]float64{g.L}, []float64{g.B})
	return Equatorial{RA: ra[0], Dec: dec[0]}
}

// ToGalactic converts ICRS columns (degrees) to galactic longitude and
// latitude (degrees). NaN inputs yield NaN outputs for that row.
func ToGalactic(ra, dec []float64) (l, b []float64) {
	return rotate(icrsToGalactic, ra, dec)
}

// ToEquatorial is the inverse of ToGalactic.
func ToEquatorial(l, b []float64) (ra, dec []float64) {
	return rotate(icrsToGalactic.T(), l, b)
}

// rotate applies r to every (lon, lat) column of the input in one 3xN product.
func rotate(r mat.Matrix, lon, lat []float64) ([]float64, []float64) {
	n := len(lon)
	if n == 0 || len(lat) != n {
		return nil, nil
	}

	x := mat.NewDense(3, n, nil)
	for i := 0; i < n; i++ {
		sl, cl := math.Sincos(lon[i] * deg)
		sb, cb := math.Sincos(lat[i] * deg)
		x.Set(0, i, cb*cl)
		x.Set(1, i, cb*sl)
		x.Set(2, i, sb)
	}

	var y mat.Dense
	y.Mul(r, x)

	outLon := make([]float64, n)
	outLat := make([]float64, n)
	for i := 0; i < n; i++ {
		vx, vy, vz := y.At(0, i), y.At(1, i), y.At(2, i)
		outLon[i] = NormalizeLongitude(math.Atan2(vy, vx) / deg)
		outLat[i] = math.Atan2(vz, math.Hypot(vx, vy)) / deg
	}
	return outLon, outLat
}

// NormalizeLongitude wraps an angle in degrees into [0, 360).
func NormalizeLongitude(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}
