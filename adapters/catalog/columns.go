package catalog

// CatalogColumns names the supernova catalog columns. Redshift lists
// aliases tried in order.
type CatalogColumns struct {
	RA       string   `mapstructure:"ra" yaml:"ra"`
	Dec      string   `mapstructure:"dec" yaml:"dec"`
	Redshift []string `mapstructure:"redshift" yaml:"redshift"`
	Modulus  string   `mapstructure:"modulus" yaml:"modulus"`
	ModErr   string   `mapstructure:"modulus_err" yaml:"modulus_err"`
}

// BlackHoleColumns names the M-sigma table columns. Observed is optional.
type BlackHoleColumns struct {
	ID       string `mapstructure:"id" yaml:"id"`
	Inferred string `mapstructure:"inferred" yaml:"inferred"`
	Observed string `mapstructure:"observed" yaml:"observed"`
}

// VectorColumns names the reference vector table columns.
type VectorColumns struct {
	Label string `mapstructure:"label" yaml:"label"`
	L     string `mapstructure:"l" yaml:"l"`
	B     string `mapstructure:"b" yaml:"b"`
}

// DefaultCatalogColumns matches the Pantheon+SH0ES release.
func DefaultCatalogColumns() CatalogColumns {
	return CatalogColumns{
		RA:       "RA",
		Dec:      "DEC",
		Redshift: []string{"zHD", "zCMB", "z"},
		Modulus:  "m_b_corr",
		ModErr:   "m_b_corr_err_DIAG",
	}
}

// DefaultBlackHoleColumns matches the BASS M-sigma table.
func DefaultBlackHoleColumns() BlackHoleColumns {
	return BlackHoleColumns{
		ID:       "BAT_ID",
		Inferred: "logMBH_RG_Inferred",
		Observed: "logMBH_Observed",
	}
}

// DefaultVectorColumns matches the Cosmicflows-4 bulk flow table.
func DefaultVectorColumns() VectorColumns {
	return VectorColumns{Label: "Vetor", L: "Longitude_l", B: "Latitude_b"}
}
