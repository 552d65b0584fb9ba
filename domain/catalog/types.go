package catalog

// Record is one observed object of the supernova catalog. Galactic L and B
// are derived once after load; records are not mutated afterwards.
type Record struct {
	RA       float64 `json:"ra"`  // degrees, ICRS
	Dec      float64 `json:"dec"` // degrees, ICRS
	Redshift float64 `json:"z"`
	Modulus  float64 `json:"mu"`     // mag
	ModErr   float64 `json:"mu_err"` // mag
	L        float64 `json:"l"`      // galactic longitude, degrees
	B        float64 `json:"b"`      // galactic latitude, degrees
}

// Catalog is the cleaned supernova table.
type Catalog struct {
	Source  string   `json:"source"`
	Records []Record `json:"records"`
	Dropped int      `json:"dropped"` // rows removed by numeric coercion
}

// Len returns the number of usable rows.
func (c *Catalog) Len() int { return len(c.Records) }

// Redshifts returns the redshift column.
func (c *Catalog) Redshifts() []float64 {
	out := make([]float64, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Redshift
	}
	return out
}

// Moduli returns the observed distance modulus column.
func (c *Catalog) Moduli() []float64 {
	out := make([]float64, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Modulus
	}
	return out
}

// ModulusErrors returns the per-row modulus uncertainty column.
func (c *Catalog) ModulusErrors() []float64 {
	out := make([]float64, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.ModErr
	}
	return out
}

// Galactic returns the derived (l, b) columns.
func (c *Catalog) Galactic() (l, b []float64) {
	l = make([]float64, len(c.Records))
	b = make([]float64, len(c.Records))
	for i, r := range c.Records {
		l[i], b[i] = r.L, r.B
	}
	return l, b
}

// BlackHole is one row of the M-sigma table. Masses are log10 solar masses.
type BlackHole struct {
	ID        string  `json:"id"`
	Inferred  float64 `json:"log_m_inferred"`
	Corrected float64 `json:"log_m_corrected"`
	// Observed is set only when the table carries an observed mass column.
	Observed    float64 `json:"log_m_observed,omitempty"`
	HasObserved bool    `json:"has_observed"`
}

// ReferenceVector is a named literature direction in galactic coordinates.
type ReferenceVector struct {
	Label string  `json:"label"`
	L     float64 `json:"l"`
	B     float64 `json:"b"`
}
