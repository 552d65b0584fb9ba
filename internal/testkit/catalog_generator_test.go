package testkit

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyaudit/domain/cosmology"
)

func TestCatalogGenerator_Deterministic(t *testing.T) {
	a, err := NewCatalogGenerator(DefaultCatalogConfig()).Generate()
	require.NoError(t, err)
	b, err := NewCatalogGenerator(DefaultCatalogConfig()).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCatalogGenerator_ImprintsRadialExcess(t *testing.T) {
	cfg := DefaultCatalogConfig()
	c, err := NewCatalogGenerator(cfg).Generate()
	require.NoError(t, err)
	require.Equal(t, 10, c.Len())

	assert.InDelta(t, 0.01, c.Records[0].Redshift, 1e-12)
	assert.InDelta(t, 0.5, c.Records[9].Redshift, 1e-12)

	u, err := cosmology.NewEmptyUniverse(cfg.H0)
	require.NoError(t, err)
	res, err := u.Residuals(c.Redshifts(), c.Moduli())
	require.NoError(t, err)
	for i, z := range c.Redshifts() {
		assert.InDelta(t, cfg.Gamma*math.Pow(z, cfg.Exponent), res[i], 1e-9)
	}
	for _, r := range c.Records {
		assert.GreaterOrEqual(t, r.B, -90.0)
		assert.LessOrEqual(t, r.B, 90.0)
	}
}

func TestCatalogGenerator_RejectsBadConfig(t *testing.T) {
	cfg := DefaultCatalogConfig()
	cfg.Rows = 0
	_, err := NewCatalogGenerator(cfg).Generate()
	assert.Error(t, err)

	cfg = DefaultCatalogConfig()
	cfg.ZMin = 0
	_, err = NewCatalogGenerator(cfg).Generate()
	assert.Error(t, err)

	cfg = DefaultCatalogConfig()
	cfg.Dipole = 2
	_, err = NewCatalogGenerator(cfg).Generate()
	assert.Error(t, err)
}

func TestWriteCatalog(t *testing.T) {
	c, err := NewCatalogGenerator(DefaultCatalogConfig()).Generate()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, c))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 12)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, "CID zHD RA DEC m_b_corr m_b_corr_err_DIAG", lines[1])
	assert.Len(t, strings.Fields(lines[2]), 6)
}
